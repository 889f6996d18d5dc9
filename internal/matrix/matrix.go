// Package matrix holds the static cross-target matrix: every build/host
// combination the toolchain configuration supports, expressed as a namespace
// tree of target descriptors.
package matrix

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/jcdubois/rust-sel4/internal/tree"
)

// Target identifies one cross-compilation target. A nil *Target is the
// native marker: build for the invoking host, no cross toolchain.
type Target struct {
	// Tuple is the GNU-style target tuple, e.g. "aarch64-unknown-linux-gnu".
	Tuple string `cty:"tuple"`
	// MinimalRuntime marks bare-metal variants that still get language
	// runtime library support (unwinding, allocator) linked in.
	MinimalRuntime bool `cty:"minimal_runtime"`
}

func (t *Target) String() string {
	if t == nil {
		return "native"
	}
	if t.MinimalRuntime {
		return t.Tuple + " (minimal runtime)"
	}
	return t.Tuple
}

func cross(tuple string) tree.Node[*Target] {
	return tree.WrapLeaf(&Target{Tuple: tuple})
}

func crossMinimal(tuple string) tree.Node[*Target] {
	return tree.WrapLeaf(&Target{Tuple: tuple, MinimalRuntime: true})
}

// Tree returns the supported target matrix. The "build" dimension has a
// single native leaf; the "host" dimension is nested by architecture, then
// by environment. Bare-metal leaves on aarch64 and riscv64 carry the
// minimal-runtime variant flag.
func Tree() tree.Node[*Target] {
	return tree.Namespace(
		tree.Branch("build", tree.WrapLeaf[*Target](nil)),
		tree.Branch("host", tree.Namespace(
			tree.Branch("aarch64", tree.Namespace(
				tree.Branch("none", crossMinimal("aarch64-none-elf")),
				tree.Branch("linux", cross("aarch64-unknown-linux-gnu")),
				tree.Branch("linuxMusl", cross("aarch64-unknown-linux-musl")),
			)),
			tree.Branch("riscv64", tree.Namespace(
				tree.Branch("none", crossMinimal("riscv64-none-elf")),
				tree.Branch("linux", cross("riscv64-unknown-linux-gnu")),
			)),
			tree.Branch("x86_64", tree.Namespace(
				tree.Branch("none", cross("x86_64-elf")),
				tree.Branch("linux", cross("x86_64-unknown-linux-gnu")),
			)),
		)),
	)
}

// Guard canonicalizes a descriptor against the host's own tuple: a "cross"
// target whose tuple matches the host collapses to the native marker, so a
// redundant cross toolchain is never instantiated. hostTuple is invoked at
// most once per guarded descriptor and is expected to read the tuple from
// the already-materialized native package universe.
func Guard(hostTuple func() string) func(*Target) *Target {
	return func(t *Target) *Target {
		if t == nil {
			return nil
		}
		if t.Tuple == hostTuple() {
			return nil
		}
		return t
	}
}

// ctyType is the wire shape of a descriptor inside profile argument objects.
var ctyType = cty.Object(map[string]cty.Type{
	"tuple":           cty.String,
	"minimal_runtime": cty.Bool,
})

// ToCty encodes a descriptor as a cty value; the native marker encodes as a
// null of the descriptor object type.
func ToCty(t *Target) (cty.Value, error) {
	if t == nil {
		return cty.NullVal(ctyType), nil
	}
	v, err := gocty.ToCtyValue(t, ctyType)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to encode target '%s': %w", t.Tuple, err)
	}
	return v, nil
}

// FromCty decodes a descriptor from a cty value produced by ToCty or
// authored in a profile.
func FromCty(v cty.Value) (*Target, error) {
	if v.IsNull() {
		return nil, nil
	}
	var t Target
	if err := gocty.FromCtyValue(v, &t); err != nil {
		return nil, fmt.Errorf("failed to decode target descriptor: %w", err)
	}
	return &t, nil
}
