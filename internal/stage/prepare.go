package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/pointpipe/internal/ctxlog"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/srs"
)

// Prepare runs the configuration pass over the graph rooted at s: every
// upstream stage is prepared strictly before its consumers, and each stage
// exactly once. Call it once per run, on the terminal stage, before
// Execute.
func Prepare(ctx context.Context, s Stage, table *point.Table) error {
	if err := validateAcyclic(s); err != nil {
		return err
	}
	return prepare(ctx, s, table)
}

func prepare(ctx context.Context, s Stage, table *point.Table) error {
	b := s.base()
	if b.prepared {
		return nil
	}
	b.prepared = true

	for _, in := range b.inputs {
		if err := prepare(ctx, in, table); err != nil {
			return err
		}
	}

	if err := processFrameworkOptions(s); err != nil {
		return fmt.Errorf("%s: %w", s.Name(), err)
	}

	if rp, ok := s.(ReaderOptionProcessor); ok {
		if err := rp.ProcessReaderOptions(ctx, b.opts); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	if wp, ok := s.(WriterOptionProcessor); ok {
		if err := wp.ProcessWriterOptions(ctx, b.opts); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	if op, ok := s.(OptionProcessor); ok {
		if err := op.ProcessOptions(ctx, b.opts); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}

	b.meta = table.Metadata().Add(s.Name())

	if init, ok := s.(Initializer); ok {
		if err := init.Initialize(ctx, table); err != nil {
			return fmt.Errorf("%s: initialize: %w", s.Name(), err)
		}
	}
	if dr, ok := s.(DimensionRegistrar); ok {
		if err := dr.AddDimensions(table.Layout()); err != nil {
			return fmt.Errorf("%s: add dimensions: %w", s.Name(), err)
		}
	}
	if ph, ok := s.(PreparedHook); ok {
		if err := ph.Prepared(ctx, table); err != nil {
			return fmt.Errorf("%s: prepared: %w", s.Name(), err)
		}
	}

	b.log.Logger().Debug("stage prepared")
	return nil
}

// processFrameworkOptions runs the option pass every stage shares: the
// debug and verbose settings, log establishment, and spatial-reference
// adoption.
func processFrameworkOptions(s Stage) error {
	b := s.base()

	debug, err := b.opts.BoolDefault("debug", false)
	if err != nil {
		return err
	}
	verbose, err := b.opts.UintDefault("verbose", 0)
	if err != nil {
		return err
	}
	if debug && verbose == 0 {
		verbose = 1
	}
	b.debug = debug
	b.verbose = verbose

	if len(b.inputs) == 0 {
		dest, err := b.opts.StringDefault("log", "stdlog")
		if err != nil {
			return err
		}
		b.log, err = ctxlog.NewStageLog(s.Name(), dest)
		if err != nil {
			return err
		}
	} else if b.opts.Has("log") {
		dest, err := b.opts.String("log")
		if err != nil {
			return err
		}
		b.log, err = ctxlog.NewStageLog(s.Name(), dest)
		if err != nil {
			return err
		}
	} else {
		// Attach to the first input's stream, inheriting its
		// destination. The input list is non-empty here.
		b.log = ctxlog.Derive(s.Name(), b.inputs[0].base().log)
	}
	b.log.SetVerbose(verbose)

	ref, err := spatialReferenceOption(b.opts)
	switch {
	case err == nil:
		b.ref = ref
	case errors.Is(err, options.ErrNotFound):
		// Absence is not an error; another stage may forward a
		// reference later.
	default:
		return err
	}
	return nil
}

// spatialReferenceOption reads the "spatialreference" option, which may be
// either an srs value or a WKT/authority string. A present option of any
// other type is a hard failure.
func spatialReferenceOption(opts *options.Set) (srs.SpatialReference, error) {
	raw, ok := opts.Get("spatialreference")
	if !ok {
		return srs.SpatialReference{}, fmt.Errorf("option %q: %w", "spatialreference", options.ErrNotFound)
	}
	switch v := raw.(type) {
	case srs.SpatialReference:
		return v, nil
	case string:
		return srs.New(v), nil
	default:
		return srs.SpatialReference{}, fmt.Errorf("option %q holds %T, not a spatial reference", "spatialreference", raw)
	}
}
