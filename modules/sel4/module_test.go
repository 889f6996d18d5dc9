package sel4

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/internal/matrix"
	"github.com/jcdubois/rust-sel4/internal/registry"
	"github.com/jcdubois/rust-sel4/internal/tree"
)

func realize(t *testing.T, args cty.Value) *engine.Config {
	t.Helper()
	cfg, err := engine.Construct(context.Background(), engine.Params{
		Matrix:   matrix.Tree(),
		Universe: NewUniverse,
		Args:     args,
	})
	require.NoError(t, err)
	return cfg
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	_, ok := r.Universe(Name)
	assert.True(t, ok)
}

func TestNativeUniverse(t *testing.T) {
	cfg := realize(t, cty.NilVal)

	u, err := cfg.Universe(tree.Path{"build"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.Tuple())

	// Native builds use the unprefixed host compiler.
	assert.Equal(t, []string{"gcc", "-c", "main.c"}, u.CompilerCommand("-c", "main.c"))
}

func TestCrossUniverse(t *testing.T) {
	cfg := realize(t, cty.NilVal)

	u, err := cfg.Universe(tree.Path{"host", "aarch64", "linux"})
	require.NoError(t, err)
	assert.Equal(t, "aarch64-unknown-linux-gnu", u.Tuple())
	assert.Equal(t, []string{"aarch64-unknown-linux-gnu-gcc"}, u.CompilerCommand())

	ld, err := u.BuildTool("ld")
	require.NoError(t, err)
	assert.Equal(t, "aarch64-unknown-linux-gnu-ld", ld)

	emulator, err := u.BuildTool("qemu")
	require.NoError(t, err)
	assert.Equal(t, "qemu-system-aarch64", emulator)

	makeTool, err := u.BuildTool("make")
	require.NoError(t, err)
	assert.Equal(t, "make", makeTool)

	_, err = u.BuildTool("frobnicate")
	assert.ErrorContains(t, err, "unknown build tool 'frobnicate'")
}

func TestBareMetalCompilerFlags(t *testing.T) {
	cfg := realize(t, cty.NilVal)

	// aarch64 bare metal carries the minimal-runtime flag: freestanding,
	// but the runtime library stays linked.
	minimal, err := cfg.Universe(tree.Path{"host", "aarch64", "none"})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"aarch64-none-elf-gcc", "-ffreestanding", "-o", "loader.elf"},
		minimal.CompilerCommand("-o", "loader.elf"))

	// x86_64 bare metal has no runtime support at all.
	bare, err := cfg.Universe(tree.Path{"host", "x86_64", "none"})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"x86_64-elf-gcc", "-ffreestanding", "-nostdlib"},
		bare.CompilerCommand())
}

func TestArgumentOverrides(t *testing.T) {
	cfg := realize(t, cty.ObjectVal(map[string]cty.Value{
		"cc":          cty.StringVal("clang"),
		"tool_prefix": cty.StringVal("/opt/cross/bin/aarch64-"),
	}))

	u, err := cfg.Universe(tree.Path{"host", "aarch64", "linux"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/cross/bin/aarch64-clang"}, u.CompilerCommand())
}

func TestUnsupportedArchitecture(t *testing.T) {
	badMatrix := tree.Namespace(
		tree.Branch("build", tree.WrapLeaf[*matrix.Target](nil)),
		tree.Branch("host", tree.Namespace(
			tree.Branch("sparc", tree.WrapLeaf(&matrix.Target{Tuple: "sparc-unknown-none"})),
		)),
	)
	cfg, err := engine.Construct(context.Background(), engine.Params{
		Matrix:   badMatrix,
		Universe: NewUniverse,
	})
	require.NoError(t, err)

	_, err = cfg.Universe(tree.Path{"host", "sparc"})
	assert.ErrorContains(t, err, "unsupported target combination")
}
