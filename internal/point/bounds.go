package point

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bounds is an axis-aligned 2D/3D box. The zero value is the empty box,
// which Grow expands from.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
	set        bool
}

// EmptyBounds returns a box that contains nothing until grown.
func EmptyBounds() Bounds {
	return Bounds{}
}

// Empty reports whether the box has never been grown.
func (b Bounds) Empty() bool { return !b.set }

// Grow expands the box to include the point.
func (b *Bounds) Grow(x, y, z float64) {
	if !b.set {
		b.MinX, b.MaxX = x, x
		b.MinY, b.MaxY = y, y
		b.MinZ, b.MaxZ = z, z
		b.set = true
		return
	}
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
	b.MinZ = math.Min(b.MinZ, z)
	b.MaxZ = math.Max(b.MaxZ, z)
}

// Contains reports whether the horizontal position lies inside the box.
func (b Bounds) Contains(x, y float64) bool {
	return b.set &&
		x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY
}

// GrowBounds expands the box to include another box.
func (b *Bounds) GrowBounds(o Bounds) {
	if o.Empty() {
		return
	}
	b.Grow(o.MinX, o.MinY, o.MinZ)
	b.Grow(o.MaxX, o.MaxY, o.MaxZ)
}

// String renders the box in the textual form ParseBounds accepts.
func (b Bounds) String() string {
	return fmt.Sprintf("([%g,%g],[%g,%g])", b.MinX, b.MaxX, b.MinY, b.MaxY)
}

// ParseBounds parses the textual box form "([minx,maxx],[miny,maxy])" with
// an optional third z range.
func ParseBounds(s string) (Bounds, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "(") || !strings.HasSuffix(trimmed, ")") {
		return Bounds{}, fmt.Errorf("invalid bounds %q", s)
	}
	inner := trimmed[1 : len(trimmed)-1]

	var ranges [][2]float64
	for len(inner) > 0 {
		inner = strings.TrimLeft(inner, ", ")
		if inner == "" {
			break
		}
		if !strings.HasPrefix(inner, "[") {
			return Bounds{}, fmt.Errorf("invalid bounds %q", s)
		}
		end := strings.Index(inner, "]")
		if end < 0 {
			return Bounds{}, fmt.Errorf("invalid bounds %q", s)
		}
		parts := strings.Split(inner[1:end], ",")
		if len(parts) != 2 {
			return Bounds{}, fmt.Errorf("invalid bounds range in %q", s)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid bounds number in %q: %w", s, err)
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid bounds number in %q: %w", s, err)
		}
		ranges = append(ranges, [2]float64{lo, hi})
		inner = inner[end+1:]
	}
	if len(ranges) != 2 && len(ranges) != 3 {
		return Bounds{}, fmt.Errorf("bounds %q must have 2 or 3 ranges", s)
	}

	b := Bounds{
		MinX: ranges[0][0], MaxX: ranges[0][1],
		MinY: ranges[1][0], MaxY: ranges[1][1],
		MinZ: math.Inf(-1), MaxZ: math.Inf(1),
		set:  true,
	}
	if len(ranges) == 3 {
		b.MinZ, b.MaxZ = ranges[2][0], ranges[2][1]
	}
	return b, nil
}
