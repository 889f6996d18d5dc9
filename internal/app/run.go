package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcdubois/rust-sel4/internal/ctxlog"
	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/modules/simulate"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	config, err := a.handle.Realize(ctx)
	if err != nil {
		return fmt.Errorf("failed to realize configuration: %w", err)
	}
	a.logger.Debug("Configuration realized.", "targets", len(config.UniversePaths()))

	if a.config.ListTargets {
		return a.listTargets(config)
	}
	return a.simulate(ctx, config)
}

// listTargets prints the guarded target matrix. Only the native universe is
// materialized (the guard needs the host tuple); every cross universe stays
// suspended.
func (a *App) listTargets(config *engine.Config) error {
	for _, path := range config.UniversePaths() {
		descriptor, err := config.Descriptor(path)
		if err != nil {
			return fmt.Errorf("failed to resolve target '%s': %w", path, err)
		}
		fmt.Fprintf(a.outW, "%-24s %s\n", path, descriptor)
	}
	return nil
}

// simulate resolves the simulate extension and runs it under the harness.
func (a *App) simulate(ctx context.Context, config *engine.Config) error {
	ext, err := config.Extension(simulate.Name)
	if err != nil {
		return fmt.Errorf("failed to resolve simulate extension: %w", err)
	}
	runner, ok := ext.(*simulate.Runner)
	if !ok {
		return fmt.Errorf("simulate extension has unexpected type %T", ext)
	}

	a.logger.Info("🚀 Starting supervised simulation...", "command", runner.Command)
	result, err := runner.Run(ctx, a.outW)
	if err != nil {
		return fmt.Errorf("simulation could not be run: %w", err)
	}
	if !result.ExitOk {
		return errors.New("simulation failed")
	}
	a.logger.Info("🏁 Simulation passed.")
	return nil
}
