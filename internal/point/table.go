package point

import (
	"sync"

	"github.com/vk/pointpipe/internal/metadata"
	"github.com/vk/pointpipe/internal/srs"
)

// Table is the shared per-run context: the dimension layout, the root of
// the metadata tree, and the final spatial reference written by the
// terminal stage. One table serves one pipeline run.
type Table struct {
	layout *Layout
	meta   *metadata.Node

	mu  sync.Mutex
	ref srs.SpatialReference
}

// NewTable creates a table with an empty layout and a fresh metadata root.
func NewTable() *Table {
	return &Table{
		layout: NewLayout(),
		meta:   metadata.New("root"),
	}
}

// Layout returns the table's dimension layout.
func (t *Table) Layout() *Layout { return t.layout }

// Metadata returns the root of the table's metadata tree.
func (t *Table) Metadata() *metadata.Node { return t.meta }

// SetSpatialRef records the run's final spatial reference. The terminal
// stage writes it at the end of its own execution; the lock covers writer
// stages executing on sibling branches.
func (t *Table) SetSpatialRef(ref srs.SpatialReference) {
	t.mu.Lock()
	t.ref = ref
	t.mu.Unlock()
}

// SpatialRef returns the run's spatial reference.
func (t *Table) SpatialRef() srs.SpatialReference {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ref
}
