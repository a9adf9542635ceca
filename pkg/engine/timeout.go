package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/ifcextrude/pkg/model"
)

// DefaultTimeout bounds a single evaluation unless WithTimeout says
// otherwise.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation outlives its time limit.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one had started.
	ErrSuperseded = errors.New("engine: evaluation superseded by a newer one")
)

type outcome struct {
	model *model.Model
	errs  []EvalError
	err   error
}

// await returns the outcome of evaluation gen. A timed-out evaluation
// keeps running in its goroutine; whatever it sends later is dropped.
func (e *Engine) await(ctx context.Context, gen uint64, ch <-chan outcome) (*model.Model, []EvalError, error) {
	select {
	case o := <-ch:
		if e.Generation() != gen {
			return nil, nil, ErrSuperseded
		}
		return o.model, o.errs, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w (limit %s)", ErrTimeout, e.timeout)
		}
		return nil, nil, fmt.Errorf("engine: %w", ctx.Err())
	}
}
