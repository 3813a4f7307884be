package las

import (
	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/stage"
)

// Module registers the LAS reader and writer.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterReader(ReaderDriverName, func() stage.Stage { return NewReader() })
	f.RegisterWriter(WriterDriverName, func() stage.Stage { return NewWriter() })
}
