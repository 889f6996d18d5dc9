package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/jcdubois/rust-sel4/internal/ctxlog"
	"github.com/jcdubois/rust-sel4/internal/engine"
	"github.com/jcdubois/rust-sel4/internal/fsutil"
)

// Override is one named link of a profile's override chain.
type Override struct {
	Name      string
	Transform engine.Transform
}

// Simulate is a declared harness run.
type Simulate struct {
	Command []string
	Timeout time.Duration
}

// Profile is the merged content of every loaded profile file.
type Profile struct {
	Overrides []Override
	// Simulate is the last simulate block seen, or nil.
	Simulate *Simulate
}

// Load finds, parses, and merges all .hcl profile files under path. A path
// naming a single file loads just that file.
func Load(ctx context.Context, path string) (*Profile, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading profile files...", "path", path)

	filePaths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile path '%s': %w", path, err)
	}

	p := &Profile{}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl profile files found in path.", "path", path)
		return p, nil
	}

	parser := hclparse.NewParser()
	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse profile file '%s': %w", filePath, diags)
		}

		var file fileSchema
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &file); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode profile file '%s': %w", filePath, diags)
		}

		for _, block := range file.Overrides {
			override, err := decodeOverride(block)
			if err != nil {
				return nil, fmt.Errorf("invalid override '%s' in '%s': %w", block.Name, filePath, err)
			}
			p.Overrides = append(p.Overrides, override)
		}
		if file.Simulate != nil {
			p.Simulate = &Simulate{
				Command: file.Simulate.Command,
				Timeout: time.Duration(file.Simulate.TimeoutSeconds) * time.Second,
			}
		}
		logger.Debug("Profile file loaded.", "file", filePath, "overrides", len(file.Overrides))
	}

	logger.Info("Profiles loaded successfully.", "files", len(filePaths), "overrides", len(p.Overrides))
	return p, nil
}

// decodeOverride evaluates the block's attributes into a constant patch
// object. Profile overrides are literal data; expressions may not reference
// variables.
func decodeOverride(block *overrideBlock) (Override, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return Override{}, diags
	}

	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return Override{}, fmt.Errorf("attribute '%s': %w", name, diags)
		}
		values[name] = value
	}

	patch := cty.EmptyObjectVal
	if len(values) > 0 {
		patch = cty.ObjectVal(values)
	}
	return Override{Name: block.Name, Transform: engine.Attrs(patch)}, nil
}

// Apply folds the override chain over a configuration handle, producing the
// final derived handle. Earlier handles stay valid and unchanged.
func (p *Profile) Apply(handle *engine.Overridable) (*engine.Overridable, error) {
	current := handle
	for _, override := range p.Overrides {
		next, err := current.Override(override.Transform)
		if err != nil {
			return nil, fmt.Errorf("failed to apply override '%s': %w", override.Name, err)
		}
		current = next
	}
	return current, nil
}
