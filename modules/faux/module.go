// Package faux provides a synthetic point source for tests and pipeline
// experiments. It generates a configurable number of points in ramp,
// constant, or uniform-random mode across a bounding box.
package faux

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// DriverName is the registry identity of the faux reader.
const DriverName = "drivers.faux.reader"

// Module registers the faux reader.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterReader(DriverName, func() stage.Stage { return NewReader() })
}

// Reader generates synthetic points.
type Reader struct {
	stage.Base

	count  uint
	mode   string
	bounds point.Bounds
	seed   int64
}

// NewReader creates an unconfigured faux reader.
func NewReader() *Reader {
	return &Reader{Base: stage.NewBase(DriverName, stage.KindReader)}
}

// ProcessReaderOptions reads count (required), mode (ramp, constant, or
// random; default ramp), bounds, and seed.
func (r *Reader) ProcessReaderOptions(ctx context.Context, opts *options.Set) error {
	count, err := opts.Uint("count")
	if err != nil {
		return err
	}
	r.count = count

	mode, err := opts.StringDefault("mode", "ramp")
	if err != nil {
		return err
	}
	switch mode {
	case "ramp", "constant", "random":
		r.mode = mode
	default:
		return fmt.Errorf("unknown faux mode %q", mode)
	}

	boundsText, err := opts.StringDefault("bounds", "([0,1],[0,1],[0,1])")
	if err != nil {
		return err
	}
	r.bounds, err = point.ParseBounds(boundsText)
	if err != nil {
		return err
	}

	seed, err := opts.FloatDefault("seed", 0)
	if err != nil {
		return err
	}
	r.seed = int64(seed)
	return nil
}

// AddDimensions contributes the coordinate and time dimensions.
func (r *Reader) AddDimensions(layout *point.Layout) error {
	for _, d := range []point.Dimension{point.DimX, point.DimY, point.DimZ, point.DimGpsTime} {
		if err := layout.RegisterDim(d); err != nil {
			return err
		}
	}
	return nil
}

// Run fills the source view with generated points.
func (r *Reader) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	rng := rand.New(rand.NewSource(r.seed))
	b := r.bounds

	for i := uint(0); i < r.count; i++ {
		var x, y, z float64
		switch r.mode {
		case "constant":
			x, y, z = b.MinX, b.MinY, b.MinZ
		case "random":
			x = b.MinX + rng.Float64()*(b.MaxX-b.MinX)
			y = b.MinY + rng.Float64()*(b.MaxY-b.MinY)
			z = b.MinZ + rng.Float64()*(b.MaxZ-b.MinZ)
		default: // ramp
			frac := 0.0
			if r.count > 1 {
				frac = float64(i) / float64(r.count-1)
			}
			x = b.MinX + frac*(b.MaxX-b.MinX)
			y = b.MinY + frac*(b.MaxY-b.MinY)
			z = b.MinZ + frac*(b.MaxZ-b.MinZ)
		}

		idx := view.AppendPoint()
		if err := view.SetField(point.DimX, idx, x); err != nil {
			return nil, err
		}
		if err := view.SetField(point.DimY, idx, y); err != nil {
			return nil, err
		}
		if err := view.SetField(point.DimZ, idx, z); err != nil {
			return nil, err
		}
		if err := view.SetField(point.DimGpsTime, idx, float64(i)); err != nil {
			return nil, err
		}
	}
	return point.ViewSet{view}, nil
}
