// Package sbet reads and writes smoothed best-estimate trajectory files:
// headerless streams of fixed 17-field float64 records.
package sbet

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// Driver names for the trajectory reader and writer.
const (
	ReaderDriverName = "readers.sbet"
	WriterDriverName = "writers.sbet"
)

const fieldsPerRecord = 17

// Module registers the SBET reader and writer.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterReader(ReaderDriverName, func() stage.Stage { return NewReader() })
	f.RegisterWriter(WriterDriverName, func() stage.Stage { return NewWriter() })
}

var dims = []point.Dimension{
	point.DimGpsTime, point.DimY, point.DimX, point.DimZ,
	point.DimRoll, point.DimPitch, point.DimAzimuth,
}

// Reader decodes trajectory records into points. Latitude and longitude
// arrive in radians and are exposed in degrees as Y and X.
type Reader struct {
	stage.Base

	filename string
	count    int
}

// NewReader creates an unconfigured SBET reader.
func NewReader() *Reader {
	return &Reader{Base: stage.NewBase(ReaderDriverName, stage.KindReader)}
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

// Initialize checks the file is a whole number of records.
func (r *Reader) Initialize(ctx context.Context, table *point.Table) error {
	info, err := os.Stat(r.filename)
	if err != nil {
		return err
	}
	recordSize := int64(fieldsPerRecord * 8)
	if info.Size()%recordSize != 0 {
		return fmt.Errorf("%s: size %d is not a multiple of the %d-byte record", r.filename, info.Size(), recordSize)
	}
	r.count = int(info.Size() / recordSize)
	r.Metadata().AddValue("count", r.count, "number of trajectory records")
	return nil
}

// AddDimensions contributes the trajectory dimensions.
func (r *Reader) AddDimensions(layout *point.Layout) error {
	for _, d := range dims {
		if err := layout.RegisterDim(d); err != nil {
			return err
		}
	}
	return nil
}

// Run decodes every record into the source view.
func (r *Reader) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	f, err := os.Open(r.filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec := make([]float64, fieldsPerRecord)
	for i := 0; i < r.count; i++ {
		if err := binary.Read(f, binary.LittleEndian, rec); err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", r.filename, i, err)
		}
		idx := view.AppendPoint()
		view.SetField(point.DimGpsTime, idx, rec[0])
		view.SetField(point.DimY, idx, rec[1]*180/math.Pi)
		view.SetField(point.DimX, idx, rec[2]*180/math.Pi)
		view.SetField(point.DimZ, idx, rec[3])
		view.SetField(point.DimRoll, idx, rec[7])
		view.SetField(point.DimPitch, idx, rec[8])
		view.SetField(point.DimAzimuth, idx, rec[9]*180/math.Pi)
	}
	return point.ViewSet{view}, nil
}

// Writer encodes points back into trajectory records. Fields without a
// matching dimension are written as zero.
type Writer struct {
	stage.Base

	filename string

	mu   sync.Mutex
	file *os.File
}

// NewWriter creates an unconfigured SBET writer.
func NewWriter() *Writer {
	return &Writer{Base: stage.NewBase(WriterDriverName, stage.KindWriter)}
}

// ProcessWriterOptions requires a filename.
func (w *Writer) ProcessWriterOptions(ctx context.Context, opts *options.Set) error {
	filename, err := opts.String("filename")
	if err != nil {
		return err
	}
	w.filename = filename
	return nil
}

// Ready opens the output file.
func (w *Writer) Ready(ctx context.Context, table *point.Table) error {
	f, err := os.Create(w.filename)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}

// Run appends one view's points as records.
func (w *Writer) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := make([]float64, fieldsPerRecord)
	for i := 0; i < view.Len(); i++ {
		for j := range rec {
			rec[j] = 0
		}
		rec[0] = view.GetField(point.DimGpsTime, i)
		rec[1] = view.GetField(point.DimY, i) * math.Pi / 180
		rec[2] = view.GetField(point.DimX, i) * math.Pi / 180
		rec[3] = view.GetField(point.DimZ, i)
		rec[7] = view.GetField(point.DimRoll, i)
		rec[8] = view.GetField(point.DimPitch, i)
		rec[9] = view.GetField(point.DimAzimuth, i) * math.Pi / 180
		if err := binary.Write(w.file, binary.LittleEndian, rec); err != nil {
			return nil, err
		}
	}
	return point.ViewSet{view}, nil
}

// Done closes the output.
func (w *Writer) Done(ctx context.Context, table *point.Table) error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Close releases the output file when a failed run skipped Done.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
