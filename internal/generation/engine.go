// Package generation turns an uploaded video into scored clips.
//
// A run moves the video uploaded → processing → ready|failed. The claim is a
// compare-and-set on the video status, so a duplicate trigger for the same video
// is a no-op. Clips, the video's ready state and the owner's clips_used increment
// are committed together or not at all.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
	"github.com/clipai/backend/pkg/storage"
)

// Store persists generation state transitions.
type Store interface {
	// ClaimVideo moves an uploaded video owned by userID to processing and its job to running.
	// It returns nil, nil when the video is missing, not owned, or no longer uploaded.
	ClaimVideo(ctx context.Context, videoID, userID int64) (*models.Video, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	// CompleteGeneration atomically inserts clips, marks the video ready with its duration,
	// adds len(Clips) to the owner's clips_used and marks the job succeeded.
	// It fails with apperrors.ErrConflict if the video is no longer processing.
	CompleteGeneration(ctx context.Context, c Completion) error
	// FailGeneration marks a not-yet-ready video and its job failed.
	FailGeneration(ctx context.Context, videoID int64, reason string) error
}

// Completion is the result of a successful run.
type Completion struct {
	VideoID  int64
	UserID   int64
	Duration float64
	Clips    []models.Clip
}

// Config tunes the engine.
type Config struct {
	Timeout  time.Duration
	MaxClips int
}

// ReasonTimeout is recorded on videos whose run exceeded the timeout.
const ReasonTimeout = "timeout"

const failWriteTimeout = 10 * time.Second

var clipTitles = []string{"Opening Hook", "Best Moment", "Key Punchline", "Exclusive Tip", "Call to Action"}

// Engine runs clip generation for one video at a time per call; calls for different videos may run concurrently.
type Engine struct {
	store    Store
	analyzer Analyzer
	cfg      Config
	logger   *zap.Logger
}

// NewEngine creates a generation engine.
func NewEngine(store Store, analyzer Analyzer, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.MaxClips <= 0 {
		cfg.MaxClips = DefaultMaxClips
	}
	return &Engine{store: store, analyzer: analyzer, cfg: cfg, logger: logger}
}

// Timeout returns the per-run deadline.
func (e *Engine) Timeout() time.Duration { return e.cfg.Timeout }

// Generate runs generation for videoID. Run failures are recorded on the video and job and
// are not returned; an error means the claim or the failure bookkeeping itself could not be written.
func (e *Engine) Generate(ctx context.Context, videoID, userID int64) error {
	log := e.logger.With(zap.Int64("video_id", videoID), zap.Int64("user_id", userID))

	video, err := e.store.ClaimVideo(ctx, videoID, userID)
	if err != nil {
		return fmt.Errorf("claim video %d: %w", videoID, err)
	}
	if video == nil {
		log.Info("generation skipped: video not in uploaded state")
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	completion, err := e.run(runCtx, video)
	if err == nil {
		err = e.store.CompleteGeneration(runCtx, *completion)
	}
	if err != nil {
		reason := failureReason(err)
		failCtx, cancelFail := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
		defer cancelFail()
		if ferr := e.store.FailGeneration(failCtx, videoID, reason); ferr != nil {
			log.Error("mark video failed", zap.Error(ferr), zap.NamedError("cause", err))
			return fmt.Errorf("mark video %d failed: %w", videoID, ferr)
		}
		log.Warn("generation failed", zap.String("reason", reason), zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	log.Info("generation completed",
		zap.Int("clips", len(completion.Clips)),
		zap.Float64("duration", completion.Duration),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (e *Engine) run(ctx context.Context, video *models.Video) (*Completion, error) {
	user, err := e.store.GetUser(ctx, video.UserID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if user.QuotaExhausted() {
		return nil, apperrors.ErrQuotaExceeded
	}

	analysis, err := e.analyzer.Analyze(ctx, video.StorageKey)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Dependency("media analysis", err)
	}
	if err := ValidateAnalysis(analysis, e.cfg.MaxClips); err != nil {
		return nil, err
	}

	clips := make([]models.Clip, len(analysis.Segments))
	for i, s := range analysis.Segments {
		clips[i] = models.Clip{
			VideoID:    video.ID,
			UserID:     video.UserID,
			Title:      fmt.Sprintf("%s #%d", clipTitles[i%len(clipTitles)], i+1),
			StorageKey: storage.ClipKey(video.UserID, video.ID, i+1),
			StartTime:  s.Start,
			EndTime:    s.End,
			Duration:   s.End - s.Start,
			AIScore:    s.Score,
			Status:     models.ClipStatusReady,
		}
	}
	return &Completion{
		VideoID:  video.ID,
		UserID:   video.UserID,
		Duration: analysis.Duration,
		Clips:    clips,
	}, nil
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	msg := err.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}
