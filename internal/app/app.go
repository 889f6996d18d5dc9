package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/ctxlog"
	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/internal/matrix"
	"github.com/jcdubois/rust-sel4/internal/profile"
	"github.com/jcdubois/rust-sel4/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	profile  *profile.Profile
	handle   *engine.Overridable
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry,
// with the profile override chain already folded into the configuration
// handle. Nothing target-specific is constructed yet.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go modules.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	// Validate the registry against the requested universe family.
	if err := reg.Validate(ctx, cfg.UniverseModule); err != nil {
		// This is a mismatch between code and config, so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	// Load the profile override chain, if any.
	prof := &profile.Profile{}
	if cfg.ProfilePath != "" {
		loaded, err := profile.Load(ctx, cfg.ProfilePath)
		if err != nil {
			// A failure to load config is a fatal startup error.
			panic(fmt.Errorf("failed to load profiles: %w", err))
		}
		prof = loaded
	}

	universeFn, _ := reg.Universe(cfg.UniverseModule)
	builder := func(ctx context.Context, args cty.Value) (*engine.Config, error) {
		return engine.Construct(ctx, engine.Params{
			Matrix:     matrix.Tree(),
			Universe:   universeFn,
			Extensions: reg.Extensions(),
			Args:       args,
		})
	}

	handle := engine.MakeOverridable(engine.MergeLaterWins, builder, cty.EmptyObjectVal)
	handle, err := prof.Apply(handle)
	if err != nil {
		panic(fmt.Errorf("failed to apply profile overrides: %w", err))
	}

	// CLI-level simulation settings are the last link of the chain, so
	// they win over anything a profile declared.
	if patch := cliPatch(cfg, prof); patch != cty.NilVal {
		handle, err = handle.Override(engine.Attrs(patch))
		if err != nil {
			panic(fmt.Errorf("failed to apply command line overrides: %w", err))
		}
	}
	logger.Debug("Configuration handle prepared.", "overrides", len(prof.Overrides))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		profile:  prof,
		handle:   handle,
		config:   cfg,
	}
}

// cliPatch folds the profile's simulate block and the CLI flags into one
// argument patch, CLI values winning.
func cliPatch(cfg *Config, prof *profile.Profile) cty.Value {
	values := make(map[string]cty.Value)

	if prof.Simulate != nil {
		if len(prof.Simulate.Command) > 0 {
			values["simulate_command"] = stringList(prof.Simulate.Command)
		}
		if prof.Simulate.Timeout > 0 {
			values["simulate_timeout_seconds"] = cty.NumberIntVal(int64(prof.Simulate.Timeout.Seconds()))
		}
	}
	if len(cfg.SimulateCommand) > 0 {
		values["simulate_command"] = stringList(cfg.SimulateCommand)
	}
	if cfg.TimeoutSeconds > 0 {
		values["simulate_timeout_seconds"] = cty.NumberIntVal(int64(cfg.TimeoutSeconds))
	}

	if len(values) == 0 {
		return cty.NilVal
	}
	return cty.ObjectVal(values)
}

func stringList(values []string) cty.Value {
	out := make([]cty.Value, len(values))
	for i, v := range values {
		out[i] = cty.StringVal(v)
	}
	return cty.ListVal(out)
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Handle returns the prepared configuration handle. This is primarily for testing.
func (a *App) Handle() *engine.Overridable {
	return a.handle
}
