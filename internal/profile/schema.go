package profile

import (
	"github.com/hashicorp/hcl/v2"
)

// overrideBlock is one `override "name" { ... }` block; its body is a free
// attribute set that becomes a patch over the engine arguments.
type overrideBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// simulateBlock declares a harness run.
type simulateBlock struct {
	Command        []string `hcl:"command"`
	TimeoutSeconds int64    `hcl:"timeout_seconds,optional"`
}

// fileSchema is the top-level structure of one profile file.
type fileSchema struct {
	Overrides []*overrideBlock `hcl:"override,block"`
	Simulate  *simulateBlock   `hcl:"simulate,block"`
}
