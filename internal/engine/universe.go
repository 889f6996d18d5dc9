package engine

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/matrix"
	"github.com/jcdubois/rust-sel4/internal/tree"
)

// Universe is the target-specific build environment constructed for one
// matrix leaf. The engine treats it as opaque beyond the resolved tuple and
// the two capabilities every recipe needs: build-tool access and a compiler
// invocation.
type Universe interface {
	// Tuple is the resolved target tuple of this universe. For the native
	// universe it is the host's own tuple, which is what the matrix guard
	// reads.
	Tuple() string
	// BuildTool resolves the executable for a named build tool.
	BuildTool(name string) (string, error)
	// CompilerCommand returns the argv prefix for invoking this universe's
	// C compiler.
	CompilerCommand(args ...string) []string
}

// UniverseFunc constructs one package universe for a target descriptor.
// target is nil for the native universe. The scope gives the constructor
// deferred access to the configuration being built, so recipes deep inside
// one universe can reach shared state without depending on initialization
// order.
type UniverseFunc func(ctx context.Context, target *matrix.Target, scope *Scope) (Universe, error)

// ExtensionFunc constructs one top-level extension field. Extensions may
// read any package universe and each other through the scope, subject to
// cycle detection.
type ExtensionFunc func(ctx context.Context, scope *Scope) (any, error)

// Scope is the extension point injected into universe and extension
// constructors: a reference back to the configuration fixed point plus the
// tree algebra helpers.
type Scope struct {
	self *Config
}

// Self returns the configuration being constructed. Fields read through it
// resolve lazily; reading a field that is currently resolving is a fatal
// cycle.
func (s *Scope) Self() *Config {
	return s.self
}

// Args returns the argument object the configuration was realized from.
func (s *Scope) Args() cty.Value {
	return s.self.args
}

// Helpers returns the shared tree algebra helpers.
func (s *Scope) Helpers() Helpers {
	return s.self.helpers
}

// Helpers bundles the tree algebra over target descriptor trees, bound once
// per configuration so universes reach it through their scope instead of
// importing the algebra themselves.
type Helpers struct {
	WrapLeaf  func(*matrix.Target) tree.Node[*matrix.Target]
	IsLeaf    func(tree.Node[*matrix.Target]) bool
	Untree    func(tree.Node[*matrix.Target]) (any, error)
	MapLeaves func(func(*matrix.Target) *matrix.Target, tree.Node[*matrix.Target]) (tree.Node[*matrix.Target], error)
	Leaves    func(tree.Node[*matrix.Target]) ([]tree.LeafEntry[*matrix.Target], error)
}

func libraryHelpers() Helpers {
	return Helpers{
		WrapLeaf:  tree.WrapLeaf[*matrix.Target],
		IsLeaf:    tree.IsLeaf[*matrix.Target],
		Untree:    tree.Untree[*matrix.Target],
		MapLeaves: tree.MapLeaves[*matrix.Target, *matrix.Target],
		Leaves:    tree.Leaves[*matrix.Target],
	}
}
