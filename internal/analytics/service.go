// Package analytics aggregates per-clip engagement counters for a user.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// Store persists and aggregates analytics records.
type Store interface {
	// Create appends rec, or returns apperrors.ErrNotFound if rec.UserID does not own rec.ClipID.
	Create(ctx context.Context, rec *models.AnalyticsRecord) error
	Summary(ctx context.Context, userID int64) (models.AnalyticsSummary, error)
	ByPlatform(ctx context.Context, userID int64) ([]models.PlatformBreakdown, error)
}

// RecordInput is one engagement sample.
type RecordInput struct {
	ClipID   int64
	Platform string
	Date     *time.Time
	Views    int64
	Likes    int64
	Comments int64
	Shares   int64
}

// Service implements the analytics aggregator.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates the aggregator.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }, logger: logger}
}

// Summarize returns lifetime totals. A user with no records gets zeros.
func (s *Service) Summarize(ctx context.Context, userID int64) (models.AnalyticsSummary, error) {
	return s.store.Summary(ctx, userID)
}

// ByPlatform returns lifetime totals per platform.
func (s *Service) ByPlatform(ctx context.Context, userID int64) ([]models.PlatformBreakdown, error) {
	list, err := s.store.ByPlatform(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.PlatformBreakdown{}
	}
	return list, nil
}

// Record stores one engagement sample for a clip the caller owns.
func (s *Service) Record(ctx context.Context, userID int64, in RecordInput) (*models.AnalyticsRecord, error) {
	if in.ClipID <= 0 {
		return nil, apperrors.Validation("clip_id is required")
	}
	platform, err := models.ParsePlatform(in.Platform)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	if in.Views < 0 || in.Likes < 0 || in.Comments < 0 || in.Shares < 0 {
		return nil, apperrors.Validation("counters must be non-negative")
	}
	day := s.now()
	if in.Date != nil && !in.Date.IsZero() {
		day = in.Date.UTC()
	}
	rec := &models.AnalyticsRecord{
		UserID:   userID,
		ClipID:   in.ClipID,
		Platform: platform,
		Date:     time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Views:    in.Views,
		Likes:    in.Likes,
		Comments: in.Comments,
		Shares:   in.Shares,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("clip %d: %w", in.ClipID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("create analytics record: %w", err)
	}
	return rec, nil
}
