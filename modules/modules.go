// Package modules ties the built-in drivers together.
package modules

import (
	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/modules/buffer"
	"github.com/vk/pointpipe/modules/faux"
	"github.com/vk/pointpipe/modules/filters"
	"github.com/vk/pointpipe/modules/greyhound"
	"github.com/vk/pointpipe/modules/las"
	"github.com/vk/pointpipe/modules/qfit"
	"github.com/vk/pointpipe/modules/sbet"
	"github.com/vk/pointpipe/modules/text"
)

// Core is the definitive list of all driver modules that are compiled
// into the binaries.
func Core() []factory.Module {
	return []factory.Module{
		faux.Module{},
		buffer.Module{},
		las.Module{},
		sbet.Module{},
		qfit.Module{},
		text.Module{},
		greyhound.Module{},
		filters.Module{},
	}
}

// NewFactory builds a stage factory with every core module registered.
func NewFactory() *factory.Factory {
	return factory.New(Core()...)
}
