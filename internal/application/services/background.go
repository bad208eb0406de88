package services

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
)

const defaultSideEffectTimeout = 10 * time.Second

// backgroundRunner runs side effects off the response path. Tasks get a
// context detached from the caller's cancellation but bounded by timeout.
type backgroundRunner struct {
	wg      sync.WaitGroup
	timeout time.Duration
	metrics *observability.Metrics
}

func newBackgroundRunner(timeout time.Duration, metrics *observability.Metrics) *backgroundRunner {
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	return &backgroundRunner{timeout: timeout, metrics: metrics}
}

// Go runs fn in a goroutine. Errors are logged and counted, never returned.
func (r *backgroundRunner) Go(ctx context.Context, task string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				observability.LoggerFromContext(taskCtx).Error().Str("task", task).Interface("panic", rec).Msg("side effect panicked")
				observability.RecordSideEffectFailure(taskCtx, r.metrics, task)
			}
		}()

		if err := fn(taskCtx); err != nil {
			observability.LoggerFromContext(taskCtx).Warn().Err(err).Str("task", task).Msg("side effect failed")
			observability.RecordSideEffectFailure(taskCtx, r.metrics, task)
		}
	}()
}

// Drain blocks until all started tasks finish or ctx is done.
func (r *backgroundRunner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
