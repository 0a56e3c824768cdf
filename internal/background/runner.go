// Package background runs best-effort tasks: errors are logged, never
// propagated and never retried.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Runner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	wg      sync.WaitGroup
}

// New returns a Runner whose tasks each get at most timeout to finish.
// A zero timeout leaves tasks bounded only by Close.
func New(timeout time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{ctx: ctx, cancel: cancel, timeout: timeout}
}

// Go starts fn in its own goroutine. The context passed to fn is independent
// of the caller's and is cancelled by Close.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Str("task", name).Str("panic", fmt.Sprint(rec)).Msg("background task panicked")
			}
		}()

		ctx := r.ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("task", name).Msg("background task failed")
			return
		}
		log.Debug().Str("task", name).Msg("background task done")
	}()
}

// Wait blocks until every started task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// WaitTimeout waits up to d and reports whether all tasks finished.
func (r *Runner) WaitTimeout(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}

// Close cancels running tasks and waits for them.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}
