package filters

import (
	"context"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// CropDriverName is the registry identity of the crop filter.
const CropDriverName = "filters.crop"

// Crop keeps only the points whose X/Y position falls inside a bounding
// box given by the "bounds" option.
type Crop struct {
	stage.Base

	bounds point.Bounds
}

// NewCrop creates an unconfigured crop filter.
func NewCrop() *Crop {
	return &Crop{Base: stage.NewBase(CropDriverName, stage.KindFilter)}
}

// ProcessOptions reads the required bounds expression.
func (c *Crop) ProcessOptions(ctx context.Context, opts *options.Set) error {
	expr, err := opts.String("bounds")
	if err != nil {
		return err
	}
	bounds, err := point.ParseBounds(expr)
	if err != nil {
		return err
	}
	c.bounds = bounds
	return nil
}

// Run copies the contained points into a fresh view.
func (c *Crop) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	out := point.NewView(view.Table())
	dims := view.Table().Layout().Dims()
	for i := 0; i < view.Len(); i++ {
		x := view.GetField(point.DimX, i)
		y := view.GetField(point.DimY, i)
		if !c.bounds.Contains(x, y) {
			continue
		}
		idx := out.AppendPoint()
		for _, d := range dims {
			out.SetField(d, idx, view.GetField(d, i))
		}
	}
	return point.ViewSet{out}, nil
}
