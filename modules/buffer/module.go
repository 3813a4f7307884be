// Package buffer provides a reader that replays views built in memory by
// the caller, letting a pipeline start from data that never touched disk.
package buffer

import (
	"context"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// DriverName is the registry identity of the buffer reader.
const DriverName = "drivers.buffer.reader"

// Module registers the buffer reader.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterReader(DriverName, func() stage.Stage { return NewReader() })
}

// Reader replays previously constructed views.
type Reader struct {
	stage.Base

	views point.ViewSet
}

// NewReader creates an empty buffer reader; add views before executing.
func NewReader() *Reader {
	return &Reader{Base: stage.NewBase(DriverName, stage.KindReader)}
}

// AddView queues a view for replay.
func (r *Reader) AddView(v *point.View) {
	r.views = r.views.Insert(v)
}

// Run ignores the synthesized source view and returns the queued views.
func (r *Reader) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	if len(r.views) == 0 {
		return point.ViewSet{view}, nil
	}
	return r.views, nil
}
