package registry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcdubois/rust-sel4/internal/ctxlog"
	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/internal/matrix"
)

func noopUniverse(context.Context, *matrix.Target, *engine.Scope) (engine.Universe, error) {
	return nil, nil
}

func noopExtension(context.Context, *engine.Scope) (any, error) {
	return nil, nil
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.RegisterUniverse("sel4", noopUniverse)
	r.RegisterExtension("simulate", noopExtension)

	fn, ok := r.Universe("sel4")
	require.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = r.Universe("other")
	assert.False(t, ok)

	exts := r.Extensions()
	assert.Len(t, exts, 1)
	assert.Contains(t, exts, "simulate")

	// The returned map is a copy.
	delete(exts, "simulate")
	assert.Len(t, r.Extensions(), 1)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := New()
	r.RegisterUniverse("sel4", noopUniverse)
	assert.Panics(t, func() { r.RegisterUniverse("sel4", noopUniverse) })

	r.RegisterExtension("simulate", noopExtension)
	assert.Panics(t, func() { r.RegisterExtension("simulate", noopExtension) })
}

func TestNilConstructorPanics(t *testing.T) {
	r := New()
	assert.Panics(t, func() { r.RegisterUniverse("sel4", nil) })
	assert.Panics(t, func() { r.RegisterExtension("simulate", nil) })
}

func TestValidate(t *testing.T) {
	r := New()
	r.RegisterUniverse("sel4", noopUniverse)

	assert.NoError(t, r.Validate(context.Background(), "sel4"))
	assert.ErrorContains(t, r.Validate(context.Background(), "missing"), "no universe constructor registered under 'missing'")
}

func TestValidateLogsThroughContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	r := New()
	r.RegisterUniverse("sel4", noopUniverse)
	require.NoError(t, r.Validate(ctx, "sel4"))

	assert.Contains(t, buf.String(), "Validating registry")
}
