// Package worker runs clip generation jobs off the dispatch queue and sweeps stale jobs.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clipai/backend/pkg/queue"
)

// JobSource yields dispatched jobs.
type JobSource interface {
	// Dequeue blocks briefly and returns nil, nil when no job is available.
	Dequeue(ctx context.Context) (*queue.Job, error)
	DeadLetter(ctx context.Context, job *queue.Job, reason string) error
}

// Generator runs one generation for a video.
type Generator interface {
	Generate(ctx context.Context, videoID, userID int64) error
}

// GenerationProcessor pulls generation jobs with a fixed number of goroutines.
type GenerationProcessor struct {
	source      JobSource
	engine      Generator
	concurrency int
	logger      *zap.Logger
}

// NewGenerationProcessor creates a processor. concurrency < 1 is treated as 1.
func NewGenerationProcessor(source JobSource, engine Generator, concurrency int, logger *zap.Logger) *GenerationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &GenerationProcessor{source: source, engine: engine, concurrency: concurrency, logger: logger}
}

// Process executes one job. Malformed envelopes and engine bookkeeping failures are returned.
func (p *GenerationProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.Generation()
	if err != nil {
		return err
	}
	p.logger.Debug("processing generation job",
		zap.String("envelope_id", job.ID),
		zap.Int64("job_id", payload.JobID),
		zap.Int64("video_id", payload.VideoID),
	)
	return p.engine.Generate(ctx, payload.VideoID, payload.UserID)
}

// Run starts the worker loops and blocks until ctx is canceled.
func (p *GenerationProcessor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		slot := i
		g.Go(func() error {
			p.loop(ctx, slot)
			return nil
		})
	}
	p.logger.Info("generation worker started", zap.Int("concurrency", p.concurrency))
	err := g.Wait()
	p.logger.Info("generation worker stopped")
	return err
}

func (p *GenerationProcessor) loop(ctx context.Context, slot int) {
	log := p.logger.With(zap.Int("slot", slot))
	for ctx.Err() == nil {
		job, err := p.source.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			log.Warn("dequeue error", zap.Error(err))
			sleep(ctx, queue.ErrorBackoff)
			continue
		}
		if job == nil {
			continue
		}
		if err := p.Process(ctx, job); err != nil {
			log.Error("generation job failed", zap.String("envelope_id", job.ID), zap.Error(err))
			if dlErr := p.source.DeadLetter(context.WithoutCancel(ctx), job, err.Error()); dlErr != nil {
				log.Error("dead-letter failed", zap.Error(dlErr))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
