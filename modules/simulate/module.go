// Package simulate exposes the test harness as a configuration extension.
// The "simulate" extension field resolves to a Runner built from the
// argument object, defaulting its command to the emulator of the simulated
// target's own package universe.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/internal/harness"
	"github.com/jcdubois/rust-sel4/internal/registry"
	"github.com/jcdubois/rust-sel4/internal/tree"
)

// Name is the extension field this module registers.
const Name = "simulate"

// DefaultTimeout bounds runs that don't configure their own deadline.
const DefaultTimeout = 60 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the extension constructor with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterExtension(Name, NewRunner)
}

// Runner is the resolved "simulate" extension: a fully configured harness
// invocation.
type Runner struct {
	Command []string
	Timeout time.Duration
}

// NewRunner builds the runner from the argument object. Recognized
// attributes: "simulate_command" (list of string), "simulate_timeout_seconds"
// (number), and "simulate_target" (matrix leaf path, e.g.
// "host.aarch64.none"). When no command is given but a target is, the
// command defaults to that target universe's emulator.
func NewRunner(ctx context.Context, scope *engine.Scope) (any, error) {
	args := scope.Args()

	runner := &Runner{
		Command: stringListArg(args, "simulate_command"),
		Timeout: time.Duration(intArg(args, "simulate_timeout_seconds", 0)) * time.Second,
	}

	if len(runner.Command) == 0 {
		if targetPath := stringArg(args, "simulate_target"); targetPath != "" {
			universe, err := scope.Self().Universe(tree.Path(strings.Split(targetPath, ".")))
			if err != nil {
				return nil, fmt.Errorf("failed to resolve simulation target '%s': %w", targetPath, err)
			}
			emulator, err := universe.BuildTool("qemu")
			if err != nil {
				return nil, err
			}
			runner.Command = []string{emulator, "-nographic"}
		}
	}

	return runner, nil
}

// Run executes the simulation under the harness.
func (r *Runner) Run(ctx context.Context, logW io.Writer) (harness.Result, error) {
	if len(r.Command) == 0 {
		return harness.Result{}, errors.New("no simulation command configured")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return harness.Automate(ctx, r.Command, timeout, logW)
}

func stringArg(args cty.Value, name string) string {
	value, ok := attr(args, name)
	if !ok || value.Type() != cty.String {
		return ""
	}
	return value.AsString()
}

func intArg(args cty.Value, name string, fallback int64) int64 {
	value, ok := attr(args, name)
	if !ok || value.Type() != cty.Number {
		return fallback
	}
	out, _ := value.AsBigFloat().Int64()
	return out
}

func stringListArg(args cty.Value, name string) []string {
	value, ok := attr(args, name)
	if !ok || !value.CanIterateElements() {
		return nil
	}
	var out []string
	for it := value.ElementIterator(); it.Next(); {
		_, element := it.Element()
		if element.IsNull() || element.Type() != cty.String {
			return nil
		}
		out = append(out, element.AsString())
	}
	return out
}

func attr(args cty.Value, name string) (cty.Value, bool) {
	if args == cty.NilVal || args.IsNull() || !args.Type().IsObjectType() {
		return cty.NilVal, false
	}
	if !args.Type().HasAttribute(name) {
		return cty.NilVal, false
	}
	value := args.GetAttr(name)
	if value.IsNull() {
		return cty.NilVal, false
	}
	return value, true
}
