package point

import (
	"fmt"

	"github.com/google/uuid"
)

// View is an in-memory batch of points sharing one table's layout. A view
// is produced by exactly one stage execution and treated as immutable once
// its producer returns it.
type View struct {
	id    uuid.UUID
	table *Table
	cols  map[Dimension][]float64
	n     int
}

// NewView creates an empty view bound to the table. The table's layout must
// be finalized first.
func NewView(t *Table) *View {
	if !t.Layout().Finalized() {
		panic("point: view created before layout finalization")
	}
	v := &View{
		id:    uuid.New(),
		table: t,
		cols:  make(map[Dimension][]float64),
	}
	for _, d := range t.Layout().Dims() {
		v.cols[d] = nil
	}
	return v
}

// ID returns the view's unique identity.
func (v *View) ID() uuid.UUID { return v.id }

// Table returns the owning table.
func (v *View) Table() *Table { return v.table }

// Len returns the number of points in the view.
func (v *View) Len() int { return v.n }

// AppendPoint adds one zero-valued point and returns its index.
func (v *View) AppendPoint() int {
	idx := v.n
	for d := range v.cols {
		v.cols[d] = append(v.cols[d], 0)
	}
	v.n++
	return idx
}

// SetField stores a value for one dimension of one point.
func (v *View) SetField(d Dimension, idx int, val float64) error {
	col, ok := v.cols[d]
	if !ok {
		return fmt.Errorf("dimension %q not in layout", d)
	}
	if idx < 0 || idx >= v.n {
		return fmt.Errorf("point index %d out of range [0,%d)", idx, v.n)
	}
	col[idx] = val
	return nil
}

// GetField reads a value for one dimension of one point. Unknown dimensions
// and out-of-range indices read as zero, matching the empty default of an
// unset field.
func (v *View) GetField(d Dimension, idx int) float64 {
	col, ok := v.cols[d]
	if !ok || idx < 0 || idx >= v.n {
		return 0
	}
	return col[idx]
}

// AppendView copies every point of o onto the end of v. Both views must
// share a table.
func (v *View) AppendView(o *View) {
	for i := 0; i < o.Len(); i++ {
		idx := v.AppendPoint()
		for d, col := range o.cols {
			if _, ok := v.cols[d]; ok {
				v.cols[d][idx] = col[i]
			}
		}
	}
}

// ViewSet is the unordered collection of views a stage execution returns.
// Consumers must not rely on element order.
type ViewSet []*View

// Insert adds a view to the set.
func (s ViewSet) Insert(v *View) ViewSet {
	return append(s, v)
}

// Union combines two sets. Each contributor's views are kept independently;
// no deduplication occurs.
func (s ViewSet) Union(o ViewSet) ViewSet {
	return append(s, o...)
}

// TotalPoints sums the point counts over every view in the set.
func (s ViewSet) TotalPoints() int {
	total := 0
	for _, v := range s {
		total += v.Len()
	}
	return total
}
