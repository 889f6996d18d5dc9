// Package sel4 is the package-universe constructor for seL4-based targets.
// For each matrix leaf it derives the toolchain surface recipes build
// against: the resolved tuple, prefixed cross tools, and the C compiler
// invocation.
package sel4

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/internal/matrix"
	"github.com/jcdubois/rust-sel4/internal/registry"
)

// Name is the registry key this module's universe constructor lives under.
const Name = "sel4"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the universe constructor with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterUniverse(Name, NewUniverse)
}

var supportedArchs = map[string]struct{}{
	"aarch64": {},
	"riscv64": {},
	"x86_64":  {},
}

// Universe is one target-specific build environment.
type Universe struct {
	target     *matrix.Target
	tuple      string
	toolPrefix string
	cc         string
}

// NewUniverse constructs the universe for one target descriptor. A nil
// descriptor builds the native universe, whose tuple is the host's own.
// Argument object attributes "cc" and "tool_prefix" override the compiler
// name and the cross tool prefix.
func NewUniverse(ctx context.Context, target *matrix.Target, scope *engine.Scope) (engine.Universe, error) {
	args := scope.Args()
	cc := stringArg(args, "cc", "gcc")

	if target == nil {
		return &Universe{
			tuple: hostTuple(),
			cc:    cc,
		}, nil
	}

	arch := strings.SplitN(target.Tuple, "-", 2)[0]
	if _, ok := supportedArchs[arch]; !ok {
		return nil, fmt.Errorf("unsupported target combination '%s': unknown architecture '%s'", target.Tuple, arch)
	}

	return &Universe{
		target:     target,
		tuple:      target.Tuple,
		toolPrefix: stringArg(args, "tool_prefix", target.Tuple+"-"),
		cc:         cc,
	}, nil
}

// Tuple returns the resolved target tuple; for the native universe this is
// the host's own tuple.
func (u *Universe) Tuple() string {
	return u.tuple
}

// Target returns the descriptor this universe was built for, nil for native.
func (u *Universe) Target() *matrix.Target {
	return u.target
}

// BuildTool resolves a named build tool to its executable. Generic tools
// resolve unprefixed, binutils resolve through the cross tool prefix, and
// "qemu" resolves to the system emulator for this universe's architecture.
func (u *Universe) BuildTool(name string) (string, error) {
	switch name {
	case "make", "cmake", "ninja":
		return name, nil
	case "ld", "objcopy", "objdump", "strip":
		return u.toolPrefix + name, nil
	case "qemu":
		arch := strings.SplitN(u.tuple, "-", 2)[0]
		return "qemu-system-" + arch, nil
	default:
		return "", fmt.Errorf("unknown build tool '%s' for target '%s'", name, u.tuple)
	}
}

// CompilerCommand returns the argv prefix for invoking this universe's C
// compiler, with the target's baseline flags applied before args.
func (u *Universe) CompilerCommand(args ...string) []string {
	argv := []string{u.toolPrefix + u.cc}
	if u.target != nil && strings.HasSuffix(u.tuple, "-elf") {
		argv = append(argv, "-ffreestanding")
		if !u.target.MinimalRuntime {
			argv = append(argv, "-nostdlib")
		}
	}
	return append(argv, args...)
}

// stringArg reads an optional string attribute from the argument object.
func stringArg(args cty.Value, name, fallback string) string {
	if args == cty.NilVal || args.IsNull() || !args.Type().IsObjectType() {
		return fallback
	}
	if !args.Type().HasAttribute(name) {
		return fallback
	}
	value := args.GetAttr(name)
	if value.IsNull() || value.Type() != cty.String {
		return fallback
	}
	return value.AsString()
}

// hostTuple resolves the invoking host's own tuple from the Go runtime.
func hostTuple() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	switch runtime.GOOS {
	case "linux":
		return arch + "-unknown-linux-gnu"
	case "darwin":
		return arch + "-apple-darwin"
	default:
		return arch + "-unknown-" + runtime.GOOS
	}
}
