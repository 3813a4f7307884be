package filters

import (
	"context"
	"sort"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// SortDriverName is the registry identity of the sort filter.
const SortDriverName = "filters.sort"

// Sort orders the points of each view by one dimension, ascending or
// descending.
type Sort struct {
	stage.Base

	dim        point.Dimension
	descending bool
}

// NewSort creates an unconfigured sort filter.
func NewSort() *Sort {
	return &Sort{Base: stage.NewBase(SortDriverName, stage.KindFilter)}
}

// ProcessOptions reads dimension (required) and order (asc or desc).
func (s *Sort) ProcessOptions(ctx context.Context, opts *options.Set) error {
	dim, err := opts.String("dimension")
	if err != nil {
		return err
	}
	s.dim = point.Dimension(dim)

	order, err := opts.StringDefault("order", "asc")
	if err != nil {
		return err
	}
	s.descending = order == "desc"
	return nil
}

// Run emits a new view holding the same points in sorted order.
func (s *Sort) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	perm := make([]int, view.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		va := view.GetField(s.dim, perm[a])
		vb := view.GetField(s.dim, perm[b])
		if s.descending {
			return va > vb
		}
		return va < vb
	})

	out := point.NewView(view.Table())
	dims := view.Table().Layout().Dims()
	for _, src := range perm {
		idx := out.AppendPoint()
		for _, d := range dims {
			out.SetField(d, idx, view.GetField(d, src))
		}
	}
	return point.ViewSet{out}, nil
}
