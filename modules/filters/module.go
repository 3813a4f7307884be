// Package filters provides the built-in view transformations: crop,
// decimation, merge, sort, splitter, and stats.
package filters

import (
	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/stage"
)

// Module registers the built-in filters.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterFilter(CropDriverName, func() stage.Stage { return NewCrop() })
	f.RegisterFilter(DecimationDriverName, func() stage.Stage { return NewDecimation() })
	f.RegisterFilter(MergeDriverName, func() stage.Stage { return NewMerge() })
	f.RegisterFilter(SortDriverName, func() stage.Stage { return NewSort() })
	f.RegisterFilter(SplitterDriverName, func() stage.Stage { return NewSplitter() })
	f.RegisterFilter(StatsDriverName, func() stage.Stage { return NewStats() })
}
