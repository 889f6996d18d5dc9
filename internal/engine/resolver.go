package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel wrapped by every CycleError.
var ErrCycle = errors.New("configuration self-reference cycle")

// CycleError reports a field whose resolution transitively required its own
// unresolved value. Chain holds the field names in resolution order, ending
// with the repeated field.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// resolver tracks the stack of fields currently being resolved for one
// configuration object, so a re-entrant resolution is reported as a cycle
// instead of recursing forever.
type resolver struct {
	stack []string
}

func (r *resolver) enter(name string) error {
	if i := slices.Index(r.stack, name); i >= 0 {
		chain := slices.Clone(r.stack[i:])
		return &CycleError{Chain: append(chain, name)}
	}
	r.stack = append(r.stack, name)
	return nil
}

func (r *resolver) exit() {
	r.stack = r.stack[:len(r.stack)-1]
}
