// Package text provides the CSV reader and writer. The writer accepts the
// literal destination "STDOUT" for the standard output stream and is the
// fallback driver for unrecognized writer extensions.
package text

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// Driver names for the text reader and writer.
const (
	ReaderDriverName = "drivers.text.reader"
	WriterDriverName = "drivers.text.writer"
)

// Module registers the text reader and writer.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterReader(ReaderDriverName, func() stage.Stage { return NewReader() })
	f.RegisterWriter(WriterDriverName, func() stage.Stage { return NewWriter() })
}

// Reader parses CSV files whose header row names dimensions.
type Reader struct {
	stage.Base

	filename string
	dims     []point.Dimension
}

// NewReader creates an unconfigured text reader.
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

// Initialize reads the header row to learn the column dimensions.
func (r *Reader) Initialize(ctx context.Context, table *point.Table) error {
	f, err := os.Open(r.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("%s: failed to read CSV header: %w", r.filename, err)
	}
	for _, name := range header {
		r.dims = append(r.dims, point.Dimension(strings.TrimSpace(name)))
	}
	return nil
}

// AddDimensions contributes one dimension per CSV column.
func (r *Reader) AddDimensions(layout *point.Layout) error {
	for _, d := range r.dims {
		if err := layout.RegisterDim(d); err != nil {
			return err
		}
	}
	return nil
}

// Run parses every data row into the source view.
func (r *Reader) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	f, err := os.Open(r.filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	if _, err := cr.Read(); err != nil { // header
		return nil, err
	}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.filename, err)
		}
		idx := view.AppendPoint()
		for col, field := range row {
			if col >= len(r.dims) {
				break
			}
			val, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", r.filename, line, err)
			}
			view.SetField(r.dims[col], idx, val)
		}
	}
	return point.ViewSet{view}, nil
}

// Writer renders points as CSV, one column per layout dimension.
type Writer struct {
	stage.Base

	filename  string
	precision int

	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	cw     *csv.Writer
	dims   []point.Dimension
}

// NewWriter creates an unconfigured text writer.
func NewWriter() *Writer {
	return &Writer{Base: stage.NewBase(WriterDriverName, stage.KindWriter)}
}

// ProcessWriterOptions requires a filename and reads the output precision.
func (w *Writer) ProcessWriterOptions(ctx context.Context, opts *options.Set) error {
	filename, err := opts.String("filename")
	if err != nil {
		return err
	}
	w.filename = filename

	precision, err := opts.UintDefault("precision", 6)
	if err != nil {
		return err
	}
	w.precision = int(precision)
	return nil
}

// Ready resolves the destination and writes the header row.
func (w *Writer) Ready(ctx context.Context, table *point.Table) error {
	if strings.EqualFold(w.filename, "STDOUT") {
		w.out = os.Stdout
	} else {
		f, err := os.Create(w.filename)
		if err != nil {
			return err
		}
		w.out = f
		w.closer = f
	}
	w.cw = csv.NewWriter(w.out)
	w.dims = table.Layout().Dims()

	header := make([]string, len(w.dims))
	for i, d := range w.dims {
		header[i] = string(d)
	}
	return w.cw.Write(header)
}

// Run appends one view's points as rows.
func (w *Writer) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := make([]string, len(w.dims))
	for i := 0; i < view.Len(); i++ {
		for col, d := range w.dims {
			row[col] = strconv.FormatFloat(view.GetField(d, i), 'f', w.precision, 64)
		}
		if err := w.cw.Write(row); err != nil {
			return nil, err
		}
	}
	return point.ViewSet{view}, nil
}

// Done flushes and closes the destination.
func (w *Writer) Done(ctx context.Context, table *point.Table) error {
	if w.cw == nil {
		return nil
	}
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return err
	}
	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}

// Close releases the output file when a failed run skipped Done.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}
