package engine

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Transform rewrites an argument object into a patch to merge over it.
type Transform func(args cty.Value) (cty.Value, error)

// Merge combines a transform's patch with the current arguments into the
// argument object for a derived configuration.
type Merge func(transform Transform, args cty.Value) (cty.Value, error)

// Builder realizes a configuration from a concrete argument object.
type Builder func(ctx context.Context, args cty.Value) (*Config, error)

// Overridable is a configuration handle: realizing it constructs a fresh
// configuration from its arguments, and overriding it derives a new handle
// with merged arguments. Handles are immutable; override chains are
// unbounded and every link stays independently realizable.
type Overridable struct {
	merge Merge
	build Builder
	args  cty.Value
}

// MakeOverridable wraps a builder with a merge rule and initial arguments.
func MakeOverridable(merge Merge, build Builder, args cty.Value) *Overridable {
	if args == cty.NilVal {
		args = cty.EmptyObjectVal
	}
	return &Overridable{merge: merge, build: build, args: args}
}

// Args returns the argument object this handle would realize with.
func (o *Overridable) Args() cty.Value {
	return o.args
}

// Realize constructs a configuration from the current arguments. Each call
// produces an independent, freshly lazy configuration.
func (o *Overridable) Realize(ctx context.Context) (*Config, error) {
	return o.build(ctx, o.args)
}

// Override merges the transform into the arguments and returns a new
// handle. The receiver is never mutated.
func (o *Overridable) Override(transform Transform) (*Overridable, error) {
	newArgs, err := o.merge(transform, o.args)
	if err != nil {
		return nil, fmt.Errorf("override failed: %w", err)
	}
	return MakeOverridable(o.merge, o.build, newArgs), nil
}

// MergeLaterWins is the canonical merge rule: the transform's patch is an
// object whose attributes overlay the current arguments, later fields
// winning attribute by attribute.
func MergeLaterWins(transform Transform, args cty.Value) (cty.Value, error) {
	patch, err := transform(args)
	if err != nil {
		return cty.NilVal, err
	}
	if patch == cty.NilVal || patch.IsNull() {
		return args, nil
	}
	if !patch.Type().IsObjectType() {
		return cty.NilVal, fmt.Errorf("override patch must be an object, got %s", patch.Type().FriendlyName())
	}

	merged := make(map[string]cty.Value)
	if args.Type().IsObjectType() && !args.IsNull() {
		for name, value := range args.AsValueMap() {
			merged[name] = value
		}
	}
	for name, value := range patch.AsValueMap() {
		merged[name] = value
	}
	if len(merged) == 0 {
		return cty.EmptyObjectVal, nil
	}
	return cty.ObjectVal(merged), nil
}

// Attrs builds a Transform that ignores the current arguments and yields a
// fixed attribute patch.
func Attrs(patch cty.Value) Transform {
	return func(cty.Value) (cty.Value, error) {
		return patch, nil
	}
}
