// Package stage implements the pipeline node abstraction and its two-phase
// lifecycle: a top-down configuration pass (Prepare) followed by a
// bottom-up, fan-out/fan-in data-production pass (Execute).
package stage

import (
	"context"

	"github.com/vk/pointpipe/internal/ctxlog"
	"github.com/vk/pointpipe/internal/metadata"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/srs"
)

// Kind partitions stages into the three registry tables.
type Kind int

const (
	KindReader Kind = iota
	KindFilter
	KindWriter
)

// String returns the lowercase kind name used in errors and logs.
func (k Kind) String() string {
	switch k {
	case KindReader:
		return "reader"
	case KindFilter:
		return "filter"
	case KindWriter:
		return "writer"
	default:
		return "unknown"
	}
}

// Stage is a node in the processing graph. Concrete stages embed Base and
// implement Run plus any of the optional lifecycle hooks below; the
// embedded Base supplies everything else.
type Stage interface {
	// Name returns the dotted driver name identifying the stage.
	Name() string

	// Run performs the stage's transformation of one source view,
	// yielding zero or more output views. Runners for sibling views of
	// the same stage call Run concurrently.
	Run(ctx context.Context, view *point.View) (point.ViewSet, error)

	base() *Base
}

// Optional lifecycle hooks, probed by the Prepare and Execute drivers.
type (
	// ReaderOptionProcessor validates reader-specific options.
	ReaderOptionProcessor interface {
		ProcessReaderOptions(ctx context.Context, opts *options.Set) error
	}

	// WriterOptionProcessor validates writer-specific options.
	WriterOptionProcessor interface {
		ProcessWriterOptions(ctx context.Context, opts *options.Set) error
	}

	// OptionProcessor validates the stage's remaining options.
	OptionProcessor interface {
		ProcessOptions(ctx context.Context, opts *options.Set) error
	}

	// Initializer performs one-time setup once options are processed.
	Initializer interface {
		Initialize(ctx context.Context, table *point.Table) error
	}

	// DimensionRegistrar contributes dimensions to the shared layout.
	DimensionRegistrar interface {
		AddDimensions(layout *point.Layout) error
	}

	// PreparedHook is notified when the stage's preparation completes.
	PreparedHook interface {
		Prepared(ctx context.Context, table *point.Table) error
	}

	// ReadyHook establishes per-run state before any runner starts.
	ReadyHook interface {
		Ready(ctx context.Context, table *point.Table) error
	}

	// DoneHook observes side effects after every runner has been joined.
	DoneHook interface {
		Done(ctx context.Context, table *point.Table) error
	}
)

// Base carries the state every stage shares. Embed it by value; the
// lifecycle drivers reach it through the unexported accessor, which also
// keeps Stage implementations inside this contract.
type Base struct {
	name    string
	kind    Kind
	inputs  []Stage
	opts    *options.Set
	debug   bool
	verbose uint
	log     *ctxlog.StageLog
	meta    *metadata.Node
	ref     srs.SpatialReference

	prepared bool
}

// NewBase creates the embedded core of a stage with the given driver name
// and kind.
func NewBase(name string, kind Kind) Base {
	return Base{
		name: name,
		kind: kind,
		opts: options.New(),
	}
}

func (b *Base) base() *Base { return b }

// Name returns the stage's driver name.
func (b *Base) Name() string { return b.name }

// Kind returns the stage's kind.
func (b *Base) Kind() Kind { return b.kind }

// SetInput appends an upstream stage. The input list must not change once
// a prepare/execute cycle has begun.
func (b *Base) SetInput(s Stage) {
	b.inputs = append(b.inputs, s)
}

// Inputs returns the stage's upstream stages in order.
func (b *Base) Inputs() []Stage {
	out := make([]Stage, len(b.inputs))
	copy(out, b.inputs)
	return out
}

// Options returns the stage's option set.
func (b *Base) Options() *options.Set { return b.opts }

// SetOptions replaces the stage's option set.
func (b *Base) SetOptions(opts *options.Set) {
	if opts == nil {
		opts = options.New()
	}
	b.opts = opts
}

// AddConditionalOptions adds each option from opts only when a same-named
// option is not already present, preserving explicit settings.
func (b *Base) AddConditionalOptions(opts *options.Set) {
	b.opts.AddConditional(opts)
}

// Log returns the stage's logger. It is nil before preparation.
func (b *Base) Log() *ctxlog.StageLog { return b.log }

// Metadata returns the stage's metadata node, allocated during preparation
// as a named child of the table root.
func (b *Base) Metadata() *metadata.Node { return b.meta }

// SpatialReference returns the stage's current spatial reference.
func (b *Base) SpatialReference() srs.SpatialReference { return b.ref }

// SetSpatialReference updates the stage's spatial reference. The first call
// that finds no "spatialreference" child under the stage's metadata node
// also records both WKT renderings there; later calls update only the
// value, never duplicating the metadata entries.
func (b *Base) SetSpatialReference(ref srs.SpatialReference) {
	b.ref = ref
	if b.meta == nil {
		return
	}
	existing := b.meta.FindChild(func(n *metadata.Node) bool {
		return n.Name() == "spatialreference"
	})
	if existing != nil {
		return
	}
	b.meta.AddValue("spatialreference", ref.WKT(srs.HorizontalOnly), "SRS of this stage")
	b.meta.AddValue("comp_spatialreference", ref.WKT(srs.CompoundOK), "SRS of this stage")
}
