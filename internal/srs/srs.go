// Package srs carries the spatial-reference value object stages and tables
// exchange. Coordinate mathematics is out of scope; the reference is the
// pair of well-known-text renderings downstream consumers need.
package srs

// WKTMode selects which rendering of the reference WKT returns.
type WKTMode int

const (
	// HorizontalOnly renders the horizontal coordinate system only.
	HorizontalOnly WKTMode = iota
	// CompoundOK renders the compound system when a vertical component
	// is present.
	CompoundOK
)

// SpatialReference is an immutable reference-system value. The zero value is
// the empty reference.
type SpatialReference struct {
	horizontal string
	compound   string
}

// New creates a reference from a single WKT (or authority string such as
// "EPSG:4326"); the compound rendering equals the horizontal one.
func New(wkt string) SpatialReference {
	return SpatialReference{horizontal: wkt, compound: wkt}
}

// NewCompound creates a reference with distinct horizontal and compound
// renderings.
func NewCompound(horizontal, compound string) SpatialReference {
	return SpatialReference{horizontal: horizontal, compound: compound}
}

// Empty reports whether the reference carries no system at all.
func (s SpatialReference) Empty() bool {
	return s.horizontal == "" && s.compound == ""
}

// WKT returns the requested rendering.
func (s SpatialReference) WKT(mode WKTMode) string {
	if mode == CompoundOK && s.compound != "" {
		return s.compound
	}
	return s.horizontal
}

// String renders the horizontal system, matching how references print in
// logs and metadata.
func (s SpatialReference) String() string { return s.horizontal }
