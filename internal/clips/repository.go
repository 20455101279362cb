package clips

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// Store reads clips.
type Store interface {
	// ListByUser returns the user's clips; videoID > 0 filters to one video ordered by ai_score.
	ListByUser(ctx context.Context, userID, videoID int64) ([]models.Clip, error)
	GetOwned(ctx context.Context, userID, clipID int64) (*models.Clip, error)
}

// Repository handles clip persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a clip repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clipColumns = `id, video_id, user_id, title, storage_key, start_time, end_time, duration, ai_score, status, created_at`

func scanClip(row pgx.Row) (*models.Clip, error) {
	var c models.Clip
	if err := row.Scan(&c.ID, &c.VideoID, &c.UserID, &c.Title, &c.StorageKey, &c.StartTime, &c.EndTime,
		&c.Duration, &c.AIScore, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns the user's clips.
func (r *Repository) ListByUser(ctx context.Context, userID, videoID int64) ([]models.Clip, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if videoID > 0 {
		rows, err = r.pool.Query(ctx, `SELECT `+clipColumns+` FROM clips
			WHERE user_id = $1 AND video_id = $2 ORDER BY ai_score DESC, id`, userID, videoID)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+clipColumns+` FROM clips
			WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// GetOwned returns a clip only if userID owns it.
func (r *Repository) GetOwned(ctx context.Context, userID, clipID int64) (*models.Clip, error) {
	c, err := scanClip(r.pool.QueryRow(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = $1 AND user_id = $2`, clipID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return c, err
}
