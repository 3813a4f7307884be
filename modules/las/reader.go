package las

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// ReaderDriverName is the registry identity of the LAS reader.
const ReaderDriverName = "drivers.las.reader"

// Reader reads LAS 1.2 files.
type Reader struct {
	stage.Base

	filename string
	header   *header
}

// NewReader creates an unconfigured LAS reader.
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

// Initialize parses the header so preparation fails early on unreadable or
// unsupported input, and records file facts in the stage metadata.
func (r *Reader) Initialize(ctx context.Context, table *point.Table) error {
	f, err := os.Open(r.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := readHeader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", r.filename, err)
	}
	r.header = h

	m := r.Metadata()
	m.AddValue("filename", r.filename, "input file")
	m.AddValue("count", h.PointCount, "number of point records")
	m.AddValue("dataformat_id", h.PointFormat, "point record format")
	return nil
}

// AddDimensions contributes the dimensions the point format stores.
func (r *Reader) AddDimensions(layout *point.Layout) error {
	dims := []point.Dimension{
		point.DimX, point.DimY, point.DimZ,
		point.DimIntensity, point.DimReturnNumber,
		point.DimClassification, point.DimPointSourceID,
	}
	if r.header != nil && r.header.PointFormat == formatXYZTime {
		dims = append(dims, point.DimGpsTime)
	}
	for _, d := range dims {
		if err := layout.RegisterDim(d); err != nil {
			return err
		}
	}
	return nil
}

// Run decodes every point record into the source view.
func (r *Reader) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	f, err := os.Open(r.filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := r.header
	if _, err := f.Seek(int64(h.PointOffset), io.SeekStart); err != nil {
		return nil, err
	}

	for i := uint32(0); i < h.PointCount; i++ {
		var rec record0
		if err := binary.Read(f, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%s: point %d: %w", r.filename, i, err)
		}
		var gpsTime float64
		if h.PointFormat == formatXYZTime {
			if err := binary.Read(f, binary.LittleEndian, &gpsTime); err != nil {
				return nil, fmt.Errorf("%s: point %d: %w", r.filename, i, err)
			}
		}

		idx := view.AppendPoint()
		view.SetField(point.DimX, idx, float64(rec.X)*h.ScaleX+h.OffsetX)
		view.SetField(point.DimY, idx, float64(rec.Y)*h.ScaleY+h.OffsetY)
		view.SetField(point.DimZ, idx, float64(rec.Z)*h.ScaleZ+h.OffsetZ)
		view.SetField(point.DimIntensity, idx, float64(rec.Intensity))
		view.SetField(point.DimReturnNumber, idx, float64(rec.Flags&0x07))
		view.SetField(point.DimClassification, idx, float64(rec.Classification))
		view.SetField(point.DimPointSourceID, idx, float64(rec.PointSourceID))
		if h.PointFormat == formatXYZTime {
			view.SetField(point.DimGpsTime, idx, gpsTime)
		}
	}
	return point.ViewSet{view}, nil
}
