package app

import (
	"github.com/jcdubois/rust-sel4/internal/registry"
	"github.com/jcdubois/rust-sel4/modules/sel4"
	"github.com/jcdubois/rust-sel4/modules/simulate"
)

// coreModules is the definitive list of all modules that are compiled into
// the sel4build binary.
var coreModules = []registry.Module{
	&sel4.Module{},
	&simulate.Module{},
}
