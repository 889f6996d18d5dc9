package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/engine"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// identityHandle returns a handle whose builder is never invoked; tests only
// inspect the merged arguments.
func identityHandle() *engine.Overridable {
	return engine.MakeOverridable(engine.MergeLaterWins, func(ctx context.Context, args cty.Value) (*engine.Config, error) {
		panic("builder must not run in this test")
	}, cty.NilVal)
}

func TestLoadAppliesOverridesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "10-base.hcl", `
override "base" {
  cc          = "gcc"
  tool_prefix = "aarch64-none-elf-"
}
`)
	writeProfile(t, dir, "20-local.hcl", `
override "local" {
  cc = "clang"
}
`)

	p, err := Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, p.Overrides, 2)
	assert.Equal(t, "base", p.Overrides[0].Name)
	assert.Equal(t, "local", p.Overrides[1].Name)

	handle, err := p.Apply(identityHandle())
	require.NoError(t, err)

	args := handle.Args().AsValueMap()
	assert.Equal(t, "clang", args["cc"].AsString())
	assert.Equal(t, "aarch64-none-elf-", args["tool_prefix"].AsString())
}

func TestLoadSimulateBlock(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "sim.hcl", `
simulate {
  command         = ["qemu-system-aarch64", "-nographic"]
  timeout_seconds = 30
}
`)

	p, err := Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, p.Simulate)
	assert.Equal(t, []string{"qemu-system-aarch64", "-nographic"}, p.Simulate.Command)
	assert.Equal(t, 30*time.Second, p.Simulate.Timeout)
}

func TestLaterSimulateBlockWins(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a.hcl", `
simulate {
  command = ["first"]
}
`)
	writeProfile(t, dir, "b.hcl", `
simulate {
  command = ["second"]
}
`)

	p, err := Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, p.Simulate)
	assert.Equal(t, []string{"second"}, p.Simulate.Command)
}

func TestLoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "one.hcl", `
override "only" {
  log_simulations = true
}
`)

	p, err := Load(context.Background(), filepath.Join(dir, "one.hcl"))
	require.NoError(t, err)
	require.Len(t, p.Overrides, 1)
}

func TestLoadEmptyDirectory(t *testing.T) {
	p, err := Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, p.Overrides)
	assert.Nil(t, p.Simulate)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "bad.hcl", `override "x" {`)

	_, err := Load(context.Background(), dir)
	assert.ErrorContains(t, err, "failed to parse profile file")
}
