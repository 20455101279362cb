package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/clipai/backend/pkg/queue"
)

// InlineDispatcher runs generation in a background goroutine of the current process.
// It stands in for the Redis queue when no broker is configured.
type InlineDispatcher struct {
	base   context.Context
	engine Generator
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewInlineDispatcher creates an in-process dispatcher. Runs are bound to base, not to the
// request that dispatched them; canceling base cancels every in-flight run.
func NewInlineDispatcher(base context.Context, engine Generator, logger *zap.Logger) *InlineDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InlineDispatcher{base: base, engine: engine, logger: logger}
}

// EnqueueGeneration starts the run and returns immediately.
// After base is canceled it refuses new runs; the reaper picks the job up later.
func (d *InlineDispatcher) EnqueueGeneration(_ context.Context, payload queue.GenerationPayload) error {
	if err := d.base.Err(); err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.engine.Generate(d.base, payload.VideoID, payload.UserID); err != nil {
			d.logger.Error("inline generation failed", zap.Int64("video_id", payload.VideoID), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until all started runs have finished.
func (d *InlineDispatcher) Wait() { d.wg.Wait() }
