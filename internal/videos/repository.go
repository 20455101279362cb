package videos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// Repository handles video persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a video repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const videoColumns = `id, user_id, storage_key, original_name, content_type, size, duration, status,
	COALESCE(failure_reason,''), created_at, updated_at`

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.UserID, &v.StorageKey, &v.OriginalName, &v.ContentType, &v.Size, &v.Duration,
		&v.Status, &v.FailureReason, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Quota returns the owner's clips_used and clips_limit.
func (r *Repository) Quota(ctx context.Context, userID int64) (used, limit int, err error) {
	err = r.pool.QueryRow(ctx, `SELECT clips_used, clips_limit FROM users WHERE id = $1`, userID).Scan(&used, &limit)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, apperrors.ErrNotFound
	}
	return used, limit, err
}

// Create inserts the video and its queued generation job in one transaction.
func (r *Repository) Create(ctx context.Context, v *models.Video) (*models.GenerationJob, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertVideo = `INSERT INTO videos (user_id, storage_key, original_name, content_type, size, status)
		VALUES ($1, $2, $3, $4, $5, 'uploaded')
		RETURNING id, status, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertVideo, v.UserID, v.StorageKey, v.OriginalName, v.ContentType, v.Size).
		Scan(&v.ID, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	job := models.GenerationJob{VideoID: v.ID, UserID: v.UserID}
	const insertJob = `INSERT INTO generation_jobs (video_id, user_id, status)
		VALUES ($1, $2, 'queued')
		RETURNING id, status, attempts, created_at, dispatched_at`
	if err := tx.QueryRow(ctx, insertJob, v.ID, v.UserID).
		Scan(&job.ID, &job.Status, &job.Attempts, &job.CreatedAt, &job.DispatchedAt); err != nil {
		return nil, fmt.Errorf("insert generation job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByUser returns the user's videos, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

// GetOwned returns a video only if userID owns it.
func (r *Repository) GetOwned(ctx context.Context, userID, videoID int64) (*models.Video, error) {
	v, err := scanVideo(r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1 AND user_id = $2`, videoID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return v, err
}
