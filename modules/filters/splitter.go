package filters

import (
	"context"
	"fmt"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// SplitterDriverName is the registry identity of the splitter filter.
const SplitterDriverName = "filters.splitter"

// Splitter cuts each view into consecutive chunks of at most capacity
// points, fanning the pipeline out downstream.
type Splitter struct {
	stage.Base

	capacity uint
}

// NewSplitter creates an unconfigured splitter filter.
func NewSplitter() *Splitter {
	return &Splitter{Base: stage.NewBase(SplitterDriverName, stage.KindFilter)}
}

// ProcessOptions reads the required capacity.
func (s *Splitter) ProcessOptions(ctx context.Context, opts *options.Set) error {
	capacity, err := opts.Uint("capacity")
	if err != nil {
		return err
	}
	if capacity == 0 {
		return fmt.Errorf("splitter capacity must be at least 1")
	}
	s.capacity = capacity
	return nil
}

// Run emits one view per chunk. An empty input yields a single empty
// view so downstream stages still observe the branch.
func (s *Splitter) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	var out point.ViewSet
	dims := view.Table().Layout().Dims()

	cur := point.NewView(view.Table())
	out = out.Insert(cur)
	for i := 0; i < view.Len(); i++ {
		if uint(cur.Len()) == s.capacity {
			cur = point.NewView(view.Table())
			out = out.Insert(cur)
		}
		idx := cur.AppendPoint()
		for _, d := range dims {
			cur.SetField(d, idx, view.GetField(d, i))
		}
	}
	return out, nil
}
