// Package point holds the shared per-run table, the dimension layout, and
// the in-memory point views stages produce and consume.
package point

import "fmt"

// Dimension identifies one per-point attribute in a layout.
type Dimension string

// Well-known dimensions contributed by the builtin drivers.
const (
	DimX              Dimension = "X"
	DimY              Dimension = "Y"
	DimZ              Dimension = "Z"
	DimIntensity      Dimension = "Intensity"
	DimReturnNumber   Dimension = "ReturnNumber"
	DimClassification Dimension = "Classification"
	DimPointSourceID  Dimension = "PointSourceId"
	DimGpsTime        Dimension = "GpsTime"
	DimRoll           Dimension = "Roll"
	DimPitch          Dimension = "Pitch"
	DimAzimuth        Dimension = "Azimuth"
)

// Layout is the dimension schema shared by every view of a table. Stages
// register dimensions during preparation; the terminal execute call
// finalizes the layout before any view is created.
type Layout struct {
	dims      []Dimension
	index     map[Dimension]int
	finalized bool
}

// NewLayout creates an empty, unfinalized layout.
func NewLayout() *Layout {
	return &Layout{index: make(map[Dimension]int)}
}

// RegisterDim adds a dimension to the layout. Registering an already-known
// dimension is a no-op. Registration after finalization is an error.
func (l *Layout) RegisterDim(d Dimension) error {
	if l.finalized {
		return fmt.Errorf("layout is finalized, cannot register dimension %q", d)
	}
	if _, ok := l.index[d]; ok {
		return nil
	}
	l.index[d] = len(l.dims)
	l.dims = append(l.dims, d)
	return nil
}

// Finalize freezes the layout. The terminal execute call site is the only
// place allowed to call this, exactly once per run.
func (l *Layout) Finalize() {
	l.finalized = true
}

// Finalized reports whether the layout has been frozen.
func (l *Layout) Finalized() bool { return l.finalized }

// Has reports whether the layout contains the dimension.
func (l *Layout) Has(d Dimension) bool {
	_, ok := l.index[d]
	return ok
}

// Dims returns the registered dimensions in registration order.
func (l *Layout) Dims() []Dimension {
	out := make([]Dimension, len(l.dims))
	copy(out, l.dims)
	return out
}
