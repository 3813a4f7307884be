package stage

import (
	"context"
	"fmt"

	"github.com/vk/pointpipe/internal/point"
)

// Runner executes one (stage, view) pair independently of its siblings.
// The owning stage launches all runners for its working set before joining
// any of them, then joins in launch order.
type Runner struct {
	stage Stage
	view  *point.View

	done chan struct{}
	out  point.ViewSet
	err  error
}

func newRunner(s Stage, v *point.View) *Runner {
	return &Runner{
		stage: s,
		view:  v,
		done:  make(chan struct{}),
	}
}

// run launches the per-view transformation. When sem is non-nil it bounds
// the number of transformations in flight.
func (r *Runner) run(ctx context.Context, sem chan struct{}) {
	go func() {
		defer close(r.done)
		defer func() {
			if rec := recover(); rec != nil {
				r.err = fmt.Errorf("runner panic: %v", rec)
			}
		}()
		if sem != nil {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				r.err = ctx.Err()
				return
			}
		}
		r.out, r.err = r.stage.Run(ctx, r.view)
	}()
}

// wait joins the runner, returning the views it produced or its failure.
func (r *Runner) wait() (point.ViewSet, error) {
	<-r.done
	return r.out, r.err
}
