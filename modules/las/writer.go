package las

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// WriterDriverName is the registry identity of the LAS writer.
const WriterDriverName = "drivers.las.writer"

// Writer writes LAS 1.2 files. Views from sibling runners are appended to
// one output file under an internal lock; the header is rewritten with the
// final counts and extents when the stage is done.
type Writer struct {
	stage.Base

	filename string
	scale    float64
	format   byte

	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	count  uint32
	bounds point.Bounds
}

// NewWriter creates an unconfigured LAS writer.
func NewWriter() *Writer {
	return &Writer{
		Base:  stage.NewBase(WriterDriverName, stage.KindWriter),
		scale: defaultScale,
	}
}

// ProcessWriterOptions requires a filename and rejects compression, which
// this codec does not support.
func (w *Writer) ProcessWriterOptions(ctx context.Context, opts *options.Set) error {
	filename, err := opts.String("filename")
	if err != nil {
		return err
	}
	w.filename = filename

	compression, err := opts.BoolDefault("compression", false)
	if err != nil {
		return err
	}
	if compression {
		return errors.New("LAS compression is not supported; write .las output")
	}

	scale, err := opts.FloatDefault("scale", defaultScale)
	if err != nil {
		return err
	}
	if scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", scale)
	}
	w.scale = scale
	return nil
}

// Ready opens the output and reserves space for the header.
func (w *Writer) Ready(ctx context.Context, table *point.Table) error {
	w.format = formatXYZ
	if table.Layout().Has(point.DimGpsTime) {
		w.format = formatXYZTime
	}

	f, err := os.Create(w.filename)
	if err != nil {
		return err
	}
	w.file = f
	w.buf = bufio.NewWriter(f)
	w.count = 0
	w.bounds = point.EmptyBounds()

	placeholder := make([]byte, headerSize)
	_, err = w.buf.Write(placeholder)
	return err
}

// Run appends one view's points to the output.
func (w *Writer) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := 0; i < view.Len(); i++ {
		x := view.GetField(point.DimX, i)
		y := view.GetField(point.DimY, i)
		z := view.GetField(point.DimZ, i)

		rec := record0{
			X:              int32(math.Round(x / w.scale)),
			Y:              int32(math.Round(y / w.scale)),
			Z:              int32(math.Round(z / w.scale)),
			Intensity:      uint16(view.GetField(point.DimIntensity, i)),
			Flags:          byte(view.GetField(point.DimReturnNumber, i)) & 0x07,
			Classification: byte(view.GetField(point.DimClassification, i)),
			PointSourceID:  uint16(view.GetField(point.DimPointSourceID, i)),
		}
		if err := binary.Write(w.buf, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
		if w.format == formatXYZTime {
			if err := binary.Write(w.buf, binary.LittleEndian, view.GetField(point.DimGpsTime, i)); err != nil {
				return nil, err
			}
		}
		w.bounds.Grow(x, y, z)
		w.count++
	}
	return point.ViewSet{view}, nil
}

// Done rewrites the header with the final counts and extents and closes
// the file.
func (w *Writer) Done(ctx context.Context, table *point.Table) error {
	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}

	recordLen := uint16(recordLenXYZ)
	if w.format == formatXYZTime {
		recordLen = recordLenXYZTime
	}
	h := header{
		VersionMajor: versionMajor,
		VersionMinor: versionMinor,
		HeaderSize:   headerSize,
		PointOffset:  headerSize,
		PointFormat:  w.format,
		RecordLength: recordLen,
		PointCount:   w.count,
		ScaleX:       w.scale,
		ScaleY:       w.scale,
		ScaleZ:       w.scale,
	}
	copy(h.Signature[:], signature)
	copy(h.Software[:], "pointpipe")
	if !w.bounds.Empty() {
		h.MinX, h.MaxX = w.bounds.MinX, w.bounds.MaxX
		h.MinY, h.MaxY = w.bounds.MinY, w.bounds.MaxY
		h.MinZ, h.MaxZ = w.bounds.MinZ, w.bounds.MaxZ
	}

	if _, err := w.file.Seek(0, 0); err != nil {
		return err
	}
	if err := h.write(w.file); err != nil {
		return err
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
