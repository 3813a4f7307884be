package filters

import (
	"context"
	"sync"

	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// MergeDriverName is the registry identity of the merge filter.
const MergeDriverName = "filters.merge"

// Merge collapses every incoming view into a single fresh output view.
// Incoming views are never touched; the first runner to arrive yields the
// accumulator, later runners append to it under a mutex and yield nothing
// themselves.
type Merge struct {
	stage.Base

	mu  sync.Mutex
	acc *point.View
}

// NewMerge creates a merge filter.
func NewMerge() *Merge {
	return &Merge{Base: stage.NewBase(MergeDriverName, stage.KindFilter)}
}

// Ready resets the accumulator for a new execution.
func (m *Merge) Ready(ctx context.Context, table *point.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acc = nil
	return nil
}

// Run folds the view into the accumulator. Append order follows runner
// completion order, not launch order.
func (m *Merge) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acc == nil {
		m.acc = point.NewView(view.Table())
		m.acc.AppendView(view)
		return point.ViewSet{m.acc}, nil
	}
	m.acc.AppendView(view)
	return nil, nil
}
