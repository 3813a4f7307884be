// Package greyhound reads points from a remote HTTP point service. The
// "filename" option is the service URI; the response is a JSON document
// of coordinate triples.
package greyhound

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// DriverName is the registry identity of the remote reader.
const DriverName = "drivers.greyhound.reader"

// Module registers the remote reader.
type Module struct{}

// Register implements factory.Module.
func (Module) Register(f *factory.Factory) {
	f.RegisterReader(DriverName, func() stage.Stage { return NewReader() })
}

// httpClient is shared by all reader executions to reuse connections.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// response is the service's read payload.
type response struct {
	Points [][]float64 `json:"points"`
}

// Reader fetches points from a service endpoint.
type Reader struct {
	stage.Base

	uri string
}

// NewReader creates an unconfigured remote reader.
func NewReader() *Reader {
	return &Reader{Base: stage.NewBase(DriverName, stage.KindReader)}
}

// ProcessReaderOptions requires a filename holding an http(s) URI.
func (r *Reader) ProcessReaderOptions(ctx context.Context, opts *options.Set) error {
	uri, err := opts.String("filename")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(strings.ToLower(uri), "http") {
		return fmt.Errorf("greyhound source %q is not an http(s) URI", uri)
	}
	r.uri = uri
	return nil
}

// AddDimensions contributes the coordinate dimensions.
func (r *Reader) AddDimensions(layout *point.Layout) error {
	for _, d := range []point.Dimension{point.DimX, point.DimY, point.DimZ} {
		if err := layout.RegisterDim(d); err != nil {
			return err
		}
	}
	return nil
}

// Run fetches the service payload into the source view.
func (r *Reader) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", r.uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", r.uri, resp.Status)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid point payload from %s: %w", r.uri, err)
	}

	for i, pt := range payload.Points {
		if len(pt) < 3 {
			return nil, fmt.Errorf("point %d from %s has %d coordinates, want 3", i, r.uri, len(pt))
		}
		idx := view.AppendPoint()
		view.SetField(point.DimX, idx, pt[0])
		view.SetField(point.DimY, idx, pt[1])
		view.SetField(point.DimZ, idx, pt[2])
	}
	return point.ViewSet{view}, nil
}
