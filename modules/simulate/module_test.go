package simulate

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/internal/matrix"
	"github.com/jcdubois/rust-sel4/internal/registry"
	"github.com/jcdubois/rust-sel4/modules/sel4"
)

func resolveRunner(t *testing.T, args cty.Value) *Runner {
	t.Helper()
	cfg, err := engine.Construct(context.Background(), engine.Params{
		Matrix:     matrix.Tree(),
		Universe:   sel4.NewUniverse,
		Extensions: map[string]engine.ExtensionFunc{Name: NewRunner},
		Args:       args,
	})
	require.NoError(t, err)

	ext, err := cfg.Extension(Name)
	require.NoError(t, err)
	runner, ok := ext.(*Runner)
	require.True(t, ok)
	return runner
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	assert.Contains(t, r.Extensions(), Name)
}

func TestExplicitCommand(t *testing.T) {
	runner := resolveRunner(t, cty.ObjectVal(map[string]cty.Value{
		"simulate_command":         cty.ListVal([]cty.Value{cty.StringVal("run-sim.sh"), cty.StringVal("--headless")}),
		"simulate_timeout_seconds": cty.NumberIntVal(15),
	}))

	assert.Equal(t, []string{"run-sim.sh", "--headless"}, runner.Command)
	assert.Equal(t, 15*time.Second, runner.Timeout)
}

func TestCommandDefaultsToTargetEmulator(t *testing.T) {
	runner := resolveRunner(t, cty.ObjectVal(map[string]cty.Value{
		"simulate_target": cty.StringVal("host.aarch64.none"),
	}))

	assert.Equal(t, []string{"qemu-system-aarch64", "-nographic"}, runner.Command)
}

func TestUnknownTargetPath(t *testing.T) {
	cfg, err := engine.Construct(context.Background(), engine.Params{
		Matrix:     matrix.Tree(),
		Universe:   sel4.NewUniverse,
		Extensions: map[string]engine.ExtensionFunc{Name: NewRunner},
		Args: cty.ObjectVal(map[string]cty.Value{
			"simulate_target": cty.StringVal("host.m68k.none"),
		}),
	})
	require.NoError(t, err)

	_, err = cfg.Extension(Name)
	assert.ErrorContains(t, err, "failed to resolve simulation target")
}

func TestRunRequiresCommand(t *testing.T) {
	runner := &Runner{}
	_, err := runner.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "no simulation command configured")
}

func TestRunExecutesHarness(t *testing.T) {
	runner := &Runner{
		Command: []string{"sh", "-c", `echo "TEST_PASS"`},
		Timeout: 30 * time.Second,
	}

	var log bytes.Buffer
	result, err := runner.Run(context.Background(), &log)
	require.NoError(t, err)
	assert.True(t, result.ExitOk)
	assert.Contains(t, log.String(), "TEST_PASS")
}
