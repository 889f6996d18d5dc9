package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/matrix"
	"github.com/jcdubois/rust-sel4/internal/tree"
)

// reserved core field names extensions must not shadow.
const (
	fieldLibraryHelpers   = "libraryHelpers"
	fieldPackageUniverses = "packageUniverses"
	fieldHostTuple        = "hostTuple"
)

// cell is one memoized suspension of the configuration fixed point.
type cell struct {
	name    string
	compute func() (any, error)
	done    bool
	value   any
	err     error
}

// Config is the realized configuration object. Package universes and
// extension fields are suspended until first read and memoized thereafter;
// the object is immutable once observed and is not safe for concurrent use.
type Config struct {
	args    cty.Value
	helpers Helpers

	universes map[string]*cell
	targets   map[string]*matrix.Target
	order     []tree.Path

	extensions map[string]*cell
	extNames   []string

	hostCell  *cell
	nativeKey string

	construct UniverseFunc
	res       *resolver
}

// Params carries everything Construct needs to realize a configuration.
type Params struct {
	// Matrix is the cross-target matrix; it must contain exactly one native
	// (nil descriptor) leaf.
	Matrix tree.Node[*matrix.Target]
	// Universe constructs the package universe for each matrix leaf.
	Universe UniverseFunc
	// Extensions are the caller-supplied top-level fields merged in after
	// the core fields.
	Extensions map[string]ExtensionFunc
	// Args is the argument object; a nil value means no arguments.
	Args cty.Value
}

// Construct realizes a configuration from the matrix and the supplied
// constructors. Nothing target-specific runs here: every universe and every
// extension stays suspended until first read.
func Construct(ctx context.Context, p Params) (*Config, error) {
	if p.Universe == nil {
		return nil, errors.New("a package universe constructor is required")
	}

	args := p.Args
	if args == cty.NilVal {
		args = cty.EmptyObjectVal
	}

	entries, err := tree.Leaves(p.Matrix)
	if err != nil {
		return nil, fmt.Errorf("invalid target matrix: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("target matrix has no leaves")
	}

	c := &Config{
		args:       args,
		helpers:    libraryHelpers(),
		universes:  make(map[string]*cell, len(entries)),
		targets:    make(map[string]*matrix.Target, len(entries)),
		extensions: make(map[string]*cell, len(p.Extensions)),
		construct:  p.Universe,
		res:        &resolver{},
	}
	scope := &Scope{self: c}

	for _, entry := range entries {
		key := entry.Path.Key()
		if entry.Value == nil {
			if c.nativeKey != "" {
				return nil, fmt.Errorf("target matrix has multiple native leaves: '%s' and '%s'", c.nativeKey, key)
			}
			c.nativeKey = key
		}
		target := entry.Value
		c.targets[key] = target
		c.order = append(c.order, entry.Path)
		c.universes[key] = &cell{
			name:    fieldPackageUniverses + "." + key,
			compute: func() (any, error) { return c.buildUniverse(ctx, target, scope) },
		}
	}
	if c.nativeKey == "" {
		return nil, errors.New("target matrix has no native leaf")
	}

	c.hostCell = &cell{
		name: fieldHostTuple,
		compute: func() (any, error) {
			native, err := c.force(c.universes[c.nativeKey])
			if err != nil {
				return nil, fmt.Errorf("failed to resolve host tuple from native universe: %w", err)
			}
			return native.(Universe).Tuple(), nil
		},
	}

	for name, construct := range p.Extensions {
		name, construct := name, construct
		switch name {
		case fieldLibraryHelpers, fieldPackageUniverses, fieldHostTuple:
			return nil, fmt.Errorf("extension '%s' shadows a core configuration field", name)
		}
		c.extNames = append(c.extNames, name)
		c.extensions[name] = &cell{
			name:    name,
			compute: func() (any, error) { return construct(ctx, scope) },
		}
	}
	slices.Sort(c.extNames)

	return c, nil
}

// buildUniverse applies the matrix guard, then either aliases the native
// universe or invokes the constructor for a genuine cross target.
func (c *Config) buildUniverse(ctx context.Context, target *matrix.Target, scope *Scope) (any, error) {
	if target != nil {
		host, err := c.HostTuple()
		if err != nil {
			return nil, err
		}
		if matrix.Guard(func() string { return host })(target) == nil {
			// A "cross" target that is actually the host: reuse the
			// native universe instead of instantiating a second
			// toolchain.
			return c.force(c.universes[c.nativeKey])
		}
	}
	universe, err := c.construct(ctx, target, scope)
	if err != nil {
		return nil, err
	}
	return universe, nil
}

// force resolves one cell, detecting re-entrant resolution.
func (c *Config) force(cl *cell) (any, error) {
	if cl.done {
		return cl.value, cl.err
	}
	if err := c.res.enter(cl.name); err != nil {
		return nil, err
	}
	defer c.res.exit()
	cl.value, cl.err = cl.compute()
	cl.done = true
	return cl.value, cl.err
}

// Args returns the argument object this configuration was realized from.
func (c *Config) Args() cty.Value {
	return c.args
}

// Helpers returns the shared tree algebra helpers.
func (c *Config) Helpers() Helpers {
	return c.helpers
}

// UniversePaths lists every matrix leaf path in declaration order.
func (c *Config) UniversePaths() []tree.Path {
	out := make([]tree.Path, len(c.order))
	copy(out, c.order)
	return out
}

// Universe resolves the package universe for one matrix leaf, constructing
// it on first read. No other leaf's universe is forced as a side effect,
// with the single sanctioned exception of the native universe when the
// guard collapses the request onto it.
func (c *Config) Universe(path tree.Path) (Universe, error) {
	cl, ok := c.universes[path.Key()]
	if !ok {
		return nil, fmt.Errorf("no package universe at path '%s'", path)
	}
	value, err := c.force(cl)
	if err != nil {
		return nil, err
	}
	return value.(Universe), nil
}

// Descriptor returns the guarded target descriptor at a path: nil for the
// native leaf and for any cross leaf whose tuple matches the host's own.
func (c *Config) Descriptor(path tree.Path) (*matrix.Target, error) {
	target, ok := c.targets[path.Key()]
	if !ok {
		return nil, fmt.Errorf("no target descriptor at path '%s'", path)
	}
	if target == nil {
		return nil, nil
	}
	host, err := c.HostTuple()
	if err != nil {
		return nil, err
	}
	return matrix.Guard(func() string { return host })(target), nil
}

// HostTuple resolves the host's own tuple, materializing the native
// universe on first read.
func (c *Config) HostTuple() (string, error) {
	value, err := c.force(c.hostCell)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// ExtensionNames lists the merged-in extension fields, sorted.
func (c *Config) ExtensionNames() []string {
	return slices.Clone(c.extNames)
}

// Extension resolves one top-level extension field by name.
func (c *Config) Extension(name string) (any, error) {
	cl, ok := c.extensions[name]
	if !ok {
		return nil, fmt.Errorf("no extension field '%s'", name)
	}
	return c.force(cl)
}
