package filters

import (
	"context"
	"fmt"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// DecimationDriverName is the registry identity of the decimation filter.
const DecimationDriverName = "filters.decimation"

// Decimation keeps every step-th point of its input, starting from an
// optional offset.
type Decimation struct {
	stage.Base

	step   uint
	offset uint
}

// NewDecimation creates an unconfigured decimation filter.
func NewDecimation() *Decimation {
	return &Decimation{Base: stage.NewBase(DecimationDriverName, stage.KindFilter)}
}

// ProcessOptions reads step (required, at least 1) and offset.
func (d *Decimation) ProcessOptions(ctx context.Context, opts *options.Set) error {
	step, err := opts.Uint("step")
	if err != nil {
		return err
	}
	if step == 0 {
		return fmt.Errorf("decimation step must be at least 1")
	}
	d.step = step

	offset, err := opts.UintDefault("offset", 0)
	if err != nil {
		return err
	}
	d.offset = offset
	return nil
}

// Run copies the surviving points into a fresh view.
func (d *Decimation) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	out := point.NewView(view.Table())
	dims := view.Table().Layout().Dims()
	for i := int(d.offset); i < view.Len(); i += int(d.step) {
		idx := out.AppendPoint()
		for _, dim := range dims {
			out.SetField(dim, idx, view.GetField(dim, i))
		}
	}
	return point.ViewSet{out}, nil
}
