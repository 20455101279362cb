// Package videos accepts source uploads and exposes them to their owners.
package videos

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
	"github.com/clipai/backend/pkg/queue"
	"github.com/clipai/backend/pkg/storage"
)

// DefaultMaxBytes is the largest accepted upload (2 GiB).
const DefaultMaxBytes int64 = 2 << 30

// Repo persists videos and their generation jobs.
type Repo interface {
	// Quota returns the owner's clips_used and clips_limit.
	Quota(ctx context.Context, userID int64) (used, limit int, err error)
	// Create inserts v as uploaded together with a queued generation job, in one transaction.
	Create(ctx context.Context, v *models.Video) (*models.GenerationJob, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Video, error)
	GetOwned(ctx context.Context, userID, videoID int64) (*models.Video, error)
}

// BlobStore stores media bytes under opaque keys.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Dispatcher hands a queued generation job to the worker pool.
type Dispatcher interface {
	EnqueueGeneration(ctx context.Context, payload queue.GenerationPayload) error
}

// Upload is one incoming file.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Detail is a video with a URL to its stored media.
type Detail struct {
	models.Video
	URL string `json:"url,omitempty"`
}

// Service implements media ingest.
type Service struct {
	repo     Repo
	blobs    BlobStore
	dispatch Dispatcher
	maxBytes int64
	logger   *zap.Logger
}

// NewService creates the ingest service. maxBytes <= 0 selects DefaultMaxBytes.
func NewService(repo Repo, blobs BlobStore, dispatch Dispatcher, maxBytes int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{repo: repo, blobs: blobs, dispatch: dispatch, maxBytes: maxBytes, logger: logger}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Ingest validates, stores and records an upload, then dispatches clip generation.
// Size, format and quota are all checked before anything is written.
func (s *Service) Ingest(ctx context.Context, userID int64, up Upload) (*models.Video, error) {
	if up.Body == nil || up.Size <= 0 {
		return nil, apperrors.Validation("video file is required")
	}
	if up.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", apperrors.ErrPayloadTooLarge, up.Size, s.maxBytes)
	}

	sniffed, err := storage.DetectVideo(up.Body)
	if err != nil {
		if errors.Is(err, storage.ErrUnrecognizedFormat) {
			return nil, fmt.Errorf("%w: only MP4, MOV, AVI and WebM are accepted", apperrors.ErrUnsupportedFormat)
		}
		return nil, apperrors.Validation("read upload: %v", err)
	}

	used, limit, err := s.repo.Quota(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load quota: %w", err)
	}
	if used >= limit {
		return nil, apperrors.ErrQuotaExceeded
	}

	key := storage.VideoKey(userID, uuid.NewString(), sniffed.Extension)
	if _, err := s.blobs.Put(ctx, key, sniffed.ContentType, sniffed.Body, up.Size); err != nil {
		return nil, apperrors.Dependency("store video", err)
	}

	video := &models.Video{
		UserID:       userID,
		StorageKey:   key,
		OriginalName: up.Filename,
		ContentType:  sniffed.ContentType,
		Size:         up.Size,
	}
	job, err := s.repo.Create(ctx, video)
	if err != nil {
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.logger.Warn("orphaned upload", zap.String("key", key), zap.Error(derr))
		}
		return nil, fmt.Errorf("record video: %w", err)
	}

	log := s.logger.With(zap.Int64("video_id", video.ID), zap.Int64("user_id", userID))
	if s.dispatch != nil {
		payload := queue.GenerationPayload{JobID: job.ID, VideoID: video.ID, UserID: userID}
		if err := s.dispatch.EnqueueGeneration(ctx, payload); err != nil {
			log.Warn("dispatch generation failed; reaper will retry dispatch", zap.Error(err))
		}
	}
	log.Info("video uploaded", zap.String("content_type", video.ContentType), zap.Int64("size", video.Size))
	return video, nil
}

// List returns the caller's videos, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Video, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Video{}
	}
	return list, nil
}

// Get returns one of the caller's videos with a media URL.
func (s *Service) Get(ctx context.Context, userID, videoID int64) (*Detail, error) {
	v, err := s.repo.GetOwned(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	url, err := s.blobs.URL(ctx, v.StorageKey)
	if err != nil {
		s.logger.Warn("media url", zap.Int64("video_id", v.ID), zap.Error(err))
	}
	return &Detail{Video: *v, URL: url}, nil
}
