package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jcdubois/rust-sel4/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sel4build", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
sel4build - cross-target build configuration and supervised simulation runs.

Usage:
  sel4build [options] [PROFILE_PATH]

Arguments:
  PROFILE_PATH
    Path to a single .hcl profile file or a directory containing .hcl files.

With no profile and no -simulate command, the realized target matrix is
printed.

Options:
`)
		flagSet.PrintDefaults()
	}

	profileFlag := flagSet.String("profile", "", "Path to the profile file or directory.")
	pFlag := flagSet.String("p", "", "Path to the profile file or directory (shorthand).")
	listFlag := flagSet.Bool("list-targets", false, "Print the realized target matrix and exit.")
	simulateFlag := flagSet.String("simulate", "", "Simulation command to run under the harness, overriding any profile.")
	timeoutFlag := flagSet.Int("timeout", 0, "Simulation timeout in seconds. 0 uses the profile or default value.")
	universeFlag := flagSet.String("universe", "", "Universe constructor module to realize targets with.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *profileFlag != "" {
		path = *profileFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Profile path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if _, err := app.ParseLogFormat(logFormat); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	if _, err := app.ParseLogLevel(logLevel); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if *timeoutFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid timeout: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	var simulateCommand []string
	if *simulateFlag != "" {
		simulateCommand = strings.Fields(*simulateFlag)
	}

	config, err := app.NewConfig(app.Config{
		ProfilePath:     path,
		UniverseModule:  *universeFlag,
		SimulateCommand: simulateCommand,
		TimeoutSeconds:  *timeoutFlag,
		ListTargets:     *listFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
