package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/generation"
	"github.com/clipai/backend/internal/models"
	"github.com/clipai/backend/pkg/queue"
)

// reapBatch bounds how many queued jobs one sweep re-dispatches.
const reapBatch = 100

// ReaperStore finds and settles stale generation jobs.
type ReaperStore interface {
	ListQueuedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.GenerationJob, error)
	MarkDispatched(ctx context.Context, jobID int64) error
	FailRunningBefore(ctx context.Context, cutoff time.Time, reason string) ([]int64, error)
}

// Dispatcher re-sends a queued job to the worker pool.
type Dispatcher interface {
	EnqueueGeneration(ctx context.Context, payload queue.GenerationPayload) error
}

// ReaperConfig tunes the reaper.
type ReaperConfig struct {
	Spec         string        // cron spec, e.g. "@every 1m"
	QueuedAfter  time.Duration // re-dispatch queued jobs whose last dispatch is older than this
	RunTimeout   time.Duration // generation run timeout
	RunningGrace time.Duration // extra allowance before a running job is declared dead
}

// Reaper periodically re-dispatches lost jobs and fails runs whose worker died.
type Reaper struct {
	store    ReaperStore
	dispatch Dispatcher
	cfg      ReaperConfig
	now      func() time.Time
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewReaper creates a reaper.
func NewReaper(store ReaperStore, dispatch Dispatcher, cfg ReaperConfig, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Spec == "" {
		cfg.Spec = "@every 1m"
	}
	if cfg.QueuedAfter <= 0 {
		cfg.QueuedAfter = 2 * time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	if cfg.RunningGrace < 0 {
		cfg.RunningGrace = 0
	}
	return &Reaper{
		store:    store,
		dispatch: dispatch,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Start schedules Sweep on the configured cron spec. Sweeps never overlap.
func (r *Reaper) Start(ctx context.Context) error {
	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := r.cron.AddFunc(r.cfg.Spec, func() {
		if err := r.Sweep(ctx); err != nil {
			r.logger.Error("reaper sweep", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule reaper %q: %w", r.cfg.Spec, err)
	}
	r.cron.Start()
	r.logger.Info("reaper started", zap.String("schedule", r.cfg.Spec))
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// Sweep runs one pass: fail stale running jobs, then re-dispatch queued jobs whose
// last dispatch is older than QueuedAfter.
func (r *Reaper) Sweep(ctx context.Context) error {
	now := r.now()

	failed, err := r.store.FailRunningBefore(ctx, now.Add(-(r.cfg.RunTimeout + r.cfg.RunningGrace)), generation.ReasonTimeout)
	if err != nil {
		return fmt.Errorf("fail stale running jobs: %w", err)
	}
	for _, videoID := range failed {
		r.logger.Warn("reaped stale generation run", zap.Int64("video_id", videoID))
	}

	queued, err := r.store.ListQueuedBefore(ctx, now.Add(-r.cfg.QueuedAfter), reapBatch)
	if err != nil {
		return fmt.Errorf("list stale queued jobs: %w", err)
	}
	var redispatched int
	for _, job := range queued {
		payload := queue.GenerationPayload{JobID: job.ID, VideoID: job.VideoID, UserID: job.UserID}
		if err := r.dispatch.EnqueueGeneration(ctx, payload); err != nil {
			return fmt.Errorf("re-dispatch job %d: %w", job.ID, err)
		}
		redispatched++
		if err := r.store.MarkDispatched(ctx, job.ID); err != nil {
			r.logger.Warn("mark job dispatched", zap.Int64("job_id", job.ID), zap.Error(err))
		}
	}
	if len(failed) > 0 || redispatched > 0 {
		r.logger.Info("reaper sweep", zap.Int("failed_running", len(failed)), zap.Int("redispatched", redispatched))
	}
	return nil
}
