package filters

import (
	"context"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// StatsDriverName is the registry identity of the stats filter.
const StatsDriverName = "filters.stats"

// Stats accumulates per-dimension summary statistics across every view
// it sees and records them in the stage's metadata when the run
// finishes. Views pass through unchanged.
type Stats struct {
	stage.Base

	dims []point.Dimension

	mu      sync.Mutex
	samples map[point.Dimension][]float64
}

// NewStats creates an unconfigured stats filter.
func NewStats() *Stats {
	return &Stats{Base: stage.NewBase(StatsDriverName, stage.KindFilter)}
}

// ProcessOptions reads an optional comma-free dimension list; by default
// every layout dimension is summarized.
func (s *Stats) ProcessOptions(ctx context.Context, opts *options.Set) error {
	raw, ok := opts.Get("dimensions")
	if !ok {
		return nil
	}
	if names, isList := raw.([]any); isList {
		for _, n := range names {
			if name, isStr := n.(string); isStr {
				s.dims = append(s.dims, point.Dimension(name))
			}
		}
	}
	return nil
}

// Ready resets the accumulators and pins the dimension list.
func (s *Stats) Ready(ctx context.Context, table *point.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dims) == 0 {
		s.dims = table.Layout().Dims()
	}
	s.samples = make(map[point.Dimension][]float64, len(s.dims))
	return nil
}

// Run records the tracked dimension values and passes the view through.
func (s *Stats) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.dims {
		vals := s.samples[d]
		for i := 0; i < view.Len(); i++ {
			vals = append(vals, view.GetField(d, i))
		}
		s.samples[d] = vals
	}
	return point.ViewSet{view}, nil
}

// Done writes one metadata child per dimension with count, min, max,
// mean, and stddev values.
func (s *Stats) Done(ctx context.Context, table *point.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.dims {
		vals := s.samples[d]
		node := s.Metadata().Add(string(d))
		node.AddValue("count", len(vals), "number of samples")
		if len(vals) == 0 {
			continue
		}
		node.AddValue("minimum", floats.Min(vals), "smallest value")
		node.AddValue("maximum", floats.Max(vals), "largest value")
		node.AddValue("average", stat.Mean(vals, nil), "arithmetic mean")
		node.AddValue("stddev", stat.StdDev(vals, nil), "sample standard deviation")
	}
	return nil
}
