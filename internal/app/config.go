package app

import (
	"github.com/jcdubois/rust-sel4/modules/sel4"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProfilePath    string // hcl profile files
	UniverseModule string // registry key of the universe constructor

	// SimulateCommand, when set, overrides any simulate block from the
	// profiles. TimeoutSeconds likewise.
	SimulateCommand []string
	TimeoutSeconds  int

	// ListTargets prints the realized target matrix instead of running a
	// simulation.
	ListTargets bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates and defaults a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.UniverseModule == "" {
		cfg.UniverseModule = sel4.Name
	}

	// With nothing to simulate, listing the matrix is the only meaningful
	// action.
	if cfg.ProfilePath == "" && len(cfg.SimulateCommand) == 0 {
		cfg.ListTargets = true
	}

	return &cfg, nil
}
