// Package qfit reads QFIT airborne-lidar files: streams of fixed-length
// records of 32-bit words, where the first word of the file gives the
// record length in bytes and thereby the word count and byte order.
package qfit

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// DriverName is the registry identity of the QFIT reader.
const DriverName = "readers.qfit"

// Module registers the QFIT reader.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterReader(DriverName, func() stage.Stage { return NewReader() })
}

// Reader decodes QFIT records.
type Reader struct {
	stage.Base

	filename  string
	order     binary.ByteOrder
	wordCount int
	count     int
}

// NewReader creates an unconfigured QFIT reader.
func NewReader() *Reader {
	return &Reader{Base: stage.NewBase(DriverName, stage.KindReader)}
}

// ProcessReaderOptions requires a filename.
func (r *Reader) ProcessReaderOptions(ctx context.Context, opts *options.Set) error {
	filename, err := opts.String("filename")
	if err != nil {
		return err
	}
	r.filename = filename
	return nil
}

// Initialize reads the leading record-length word and derives the byte
// order; a length that only makes sense byte-swapped means the file is
// big-endian.
func (r *Reader) Initialize(ctx context.Context, table *point.Table) error {
	f, err := os.Open(r.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	var recordLen int32
	r.order = binary.LittleEndian
	if err := binary.Read(f, r.order, &recordLen); err != nil {
		return fmt.Errorf("%s: %w", r.filename, err)
	}
	if recordLen <= 0 || recordLen > 1024 {
		swapped := int32(uint32(recordLen)>>24 | uint32(recordLen)>>8&0xff00 |
			uint32(recordLen)<<8&0xff0000 | uint32(recordLen)<<24)
		recordLen = swapped
		r.order = binary.BigEndian
	}
	if recordLen <= 0 || recordLen%4 != 0 {
		return fmt.Errorf("%s: invalid QFIT record length %d", r.filename, recordLen)
	}
	r.wordCount = int(recordLen) / 4

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size()%int64(recordLen) != 0 {
		return fmt.Errorf("%s: size %d is not a multiple of record length %d", r.filename, info.Size(), recordLen)
	}
	// The first record holds the length word and padding, not data.
	r.count = int(info.Size()/int64(recordLen)) - 1

	r.Metadata().AddValue("count", r.count, "number of lidar records")
	r.Metadata().AddValue("record_words", r.wordCount, "32-bit words per record")
	return nil
}

// AddDimensions contributes the coordinate and time dimensions.
func (r *Reader) AddDimensions(layout *point.Layout) error {
	for _, d := range []point.Dimension{point.DimX, point.DimY, point.DimZ, point.DimGpsTime, point.DimIntensity} {
		if err := layout.RegisterDim(d); err != nil {
			return err
		}
	}
	return nil
}

// Run decodes every record into the source view. Word layout: relative
// time (ms), latitude and longitude in degrees scaled by 1e6, elevation in
// millimeters, then signal strength.
func (r *Reader) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	f, err := os.Open(r.filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recordLen := int64(r.wordCount * 4)
	if _, err := f.Seek(recordLen, io.SeekStart); err != nil {
		return nil, err
	}

	words := make([]int32, r.wordCount)
	for i := 0; i < r.count; i++ {
		if err := binary.Read(f, r.order, words); err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", r.filename, i, err)
		}
		idx := view.AppendPoint()
		view.SetField(point.DimGpsTime, idx, float64(words[0])/1000)
		view.SetField(point.DimY, idx, float64(words[1])*1e-6)
		view.SetField(point.DimX, idx, float64(words[2])*1e-6)
		view.SetField(point.DimZ, idx, float64(words[3])*1e-3)
		if r.wordCount > 5 {
			view.SetField(point.DimIntensity, idx, float64(words[5]))
		}
	}
	return point.ViewSet{view}, nil
}
