// Package schedule records a user's intent to publish a ready clip to social platforms.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// MaxCaptionLength bounds caption text.
const MaxCaptionLength = 2200

// Store persists scheduled posts.
type Store interface {
	Create(ctx context.Context, p *models.ScheduledPost) error
	ListByUser(ctx context.Context, userID int64) ([]models.ScheduledPost, error)
	// Cancel moves a pending post owned by userID to canceled, or returns apperrors.ErrNotFound.
	Cancel(ctx context.Context, userID, postID int64) (*models.ScheduledPost, error)
}

// ClipReader loads a clip owned by a user.
type ClipReader interface {
	GetOwned(ctx context.Context, userID, clipID int64) (*models.Clip, error)
}

// Input is a scheduling request.
type Input struct {
	ClipID      int64
	Platforms   []string
	Caption     string
	Hashtags    string
	ScheduledAt *time.Time
}

// Service implements the scheduler.
type Service struct {
	posts  Store
	clips  ClipReader
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates the scheduler.
func NewService(posts Store, clips ClipReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{posts: posts, clips: clips, now: func() time.Time { return time.Now().UTC() }, logger: logger}
}

// Schedule creates a pending post for a ready clip owned by userID.
func (s *Service) Schedule(ctx context.Context, userID int64, in Input) (*models.ScheduledPost, error) {
	if in.ClipID <= 0 {
		return nil, apperrors.Validation("clip_id is required")
	}
	if len(in.Platforms) == 0 {
		return nil, apperrors.Validation("at least one platform is required")
	}
	platforms, err := models.ParsePlatforms(in.Platforms)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	if utf8.RuneCountInString(in.Caption) > MaxCaptionLength {
		return nil, apperrors.Validation("caption longer than %d characters", MaxCaptionLength)
	}

	clip, err := s.clips.GetOwned(ctx, userID, in.ClipID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("clip %d: %w", in.ClipID, apperrors.ErrNotFound)
		}
		return nil, err
	}
	if clip.Status != models.ClipStatusReady {
		return nil, fmt.Errorf("%w: clip %d is %s", apperrors.ErrClipNotReady, clip.ID, clip.Status)
	}

	at := s.now()
	if in.ScheduledAt != nil && !in.ScheduledAt.IsZero() {
		at = in.ScheduledAt.UTC()
	}
	post := &models.ScheduledPost{
		UserID:      userID,
		ClipID:      clip.ID,
		Platforms:   platforms,
		Caption:     strings.TrimSpace(in.Caption),
		Hashtags:    strings.TrimSpace(in.Hashtags),
		ScheduledAt: at,
		Status:      models.PostStatusPending,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create scheduled post: %w", err)
	}
	s.logger.Info("post scheduled",
		zap.Int64("post_id", post.ID),
		zap.Int64("clip_id", clip.ID),
		zap.Strings("platforms", models.PlatformStrings(platforms)),
		zap.Time("scheduled_at", at),
	)
	return post, nil
}

// List returns the caller's posts ordered by scheduled time.
func (s *Service) List(ctx context.Context, userID int64) ([]models.ScheduledPost, error) {
	list, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.ScheduledPost{}
	}
	return list, nil
}

// Cancel cancels a pending post. Missing, foreign and already-canceled posts are all ErrNotFound.
func (s *Service) Cancel(ctx context.Context, userID, postID int64) (*models.ScheduledPost, error) {
	post, err := s.posts.Cancel(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("post canceled", zap.Int64("post_id", post.ID))
	return post, nil
}
