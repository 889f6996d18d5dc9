package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcdubois/rust-sel4/internal/ctxlog"
	"github.com/jcdubois/rust-sel4/internal/engine"
)

// Module is the interface all compiled-in modules implement to contribute
// constructors to a registry.
type Module interface {
	Register(r *Registry)
}

// Registry holds the package-universe constructors and top-level extension
// constructors for a single application instance.
type Registry struct {
	universeRegistry  map[string]engine.UniverseFunc
	extensionRegistry map[string]engine.ExtensionFunc
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		universeRegistry:  make(map[string]engine.UniverseFunc),
		extensionRegistry: make(map[string]engine.ExtensionFunc),
	}
}

// RegisterUniverse registers a package-universe constructor under a name.
// Duplicate registration is a programmer error and panics.
func (r *Registry) RegisterUniverse(name string, fn engine.UniverseFunc) {
	if fn == nil {
		panic(fmt.Sprintf("universe constructor '%s' is nil", name))
	}
	if _, exists := r.universeRegistry[name]; exists {
		panic(fmt.Sprintf("universe constructor with name '%s' already registered", name))
	}
	slog.Debug("Registering universe constructor.", "name", name)
	r.universeRegistry[name] = fn
}

// RegisterExtension registers a top-level extension field constructor.
// Duplicate registration is a programmer error and panics.
func (r *Registry) RegisterExtension(name string, fn engine.ExtensionFunc) {
	if fn == nil {
		panic(fmt.Sprintf("extension constructor '%s' is nil", name))
	}
	if _, exists := r.extensionRegistry[name]; exists {
		panic(fmt.Sprintf("extension constructor with name '%s' already registered", name))
	}
	slog.Debug("Registering extension constructor.", "name", name)
	r.extensionRegistry[name] = fn
}

// Universe returns the constructor registered under name.
func (r *Registry) Universe(name string) (engine.UniverseFunc, bool) {
	fn, ok := r.universeRegistry[name]
	return fn, ok
}

// Extensions returns a copy of the registered extension constructors.
func (r *Registry) Extensions() map[string]engine.ExtensionFunc {
	out := make(map[string]engine.ExtensionFunc, len(r.extensionRegistry))
	for name, fn := range r.extensionRegistry {
		out[name] = fn
	}
	return out
}

// Validate checks the registry is usable with the requested universe
// constructor before anything is realized.
func (r *Registry) Validate(ctx context.Context, universeName string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating registry.", "universe", universeName, "extensions", len(r.extensionRegistry))
	if _, ok := r.universeRegistry[universeName]; !ok {
		return fmt.Errorf("no universe constructor registered under '%s'", universeName)
	}
	return nil
}
