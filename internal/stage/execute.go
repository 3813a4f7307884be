package stage

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/pointpipe/internal/point"
)

// ExecOptions configures the data-production pass.
type ExecOptions struct {
	// MaxConcurrent caps the number of runners in flight across the
	// whole run. Zero means unbounded.
	MaxConcurrent int
}

// Execute runs the data-production pass with an unbounded runner fan-out.
// Call it once per run, on the terminal stage, after Prepare.
func Execute(ctx context.Context, s Stage, table *point.Table) (point.ViewSet, error) {
	return ExecuteWith(ctx, s, table, ExecOptions{})
}

// ExecuteWith is Execute with explicit execution configuration. The shared
// layout is finalized here, exactly once, before any view exists; the
// recursion below never finalizes again.
func ExecuteWith(ctx context.Context, s Stage, table *point.Table, opts ExecOptions) (point.ViewSet, error) {
	table.Layout().Finalize()

	var sem chan struct{}
	if opts.MaxConcurrent > 0 {
		sem = make(chan struct{}, opts.MaxConcurrent)
	}
	views, err := execute(ctx, s, table, sem)
	releaseResources(s)
	return views, err
}

// releaseResources walks the graph once the run is over and releases what
// stages still hold open: output handles exposed through io.Closer, and
// owned file log destinations. A failed run skips Done, so this is where
// its writer files get closed.
func releaseResources(s Stage) {
	b := s.base()
	for _, in := range b.inputs {
		releaseResources(in)
	}
	if c, ok := s.(io.Closer); ok {
		if err := c.Close(); err != nil && b.log != nil {
			b.log.Logger().Warn("failed to release stage resources", "error", err)
		}
	}
	if b.log != nil {
		b.log.Close()
	}
}

func execute(ctx context.Context, s Stage, table *point.Table, sem chan struct{}) (point.ViewSet, error) {
	b := s.base()
	log := b.log.Logger()

	var views point.ViewSet
	if len(b.inputs) == 0 {
		// A stage without inputs sources exactly one empty view.
		views = views.Insert(point.NewView(table))
	} else {
		for i, in := range b.inputs {
			log.Debug("executing input", "input", i, "name", in.Name())
			upstream, err := execute(ctx, in, table, sem)
			if err != nil {
				return nil, err
			}
			views = views.Union(upstream)
		}
	}

	if rh, ok := s.(ReadyHook); ok {
		if err := rh.Ready(ctx, table); err != nil {
			return nil, fmt.Errorf("%s: ready: %w", s.Name(), err)
		}
	}

	// Launch every runner before joining any of them so sibling views
	// overlap, then join in launch order.
	runners := make([]*Runner, 0, len(views))
	for _, v := range views {
		log.Debug("launching runner", "view", v.ID(), "points", v.Len())
		r := newRunner(s, v)
		runners = append(runners, r)
		r.run(ctx, sem)
	}

	var out point.ViewSet
	var runErr error
	for _, r := range runners {
		produced, err := r.wait()
		if err != nil && runErr == nil {
			runErr = fmt.Errorf("%s: %w", s.Name(), err)
		}
		out = out.Union(produced)
	}
	if runErr != nil {
		// Partial results from completed siblings are discarded.
		return nil, runErr
	}

	if !b.ref.Empty() {
		table.SetSpatialRef(b.ref)
	}
	if dh, ok := s.(DoneHook); ok {
		if err := dh.Done(ctx, table); err != nil {
			return nil, fmt.Errorf("%s: done: %w", s.Name(), err)
		}
	}

	log.Debug("stage executed", "views", len(out), "points", out.TotalPoints())
	return out, nil
}
