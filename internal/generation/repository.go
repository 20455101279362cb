package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// Repository is the Postgres implementation of Store plus the stale-job queries used by the reaper.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a generation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const videoColumns = `id, user_id, storage_key, original_name, content_type, size, duration, status, COALESCE(failure_reason,''), created_at, updated_at`

// ClaimVideo implements Store.
func (r *Repository) ClaimVideo(ctx context.Context, videoID, userID int64) (*models.Video, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := `UPDATE videos SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'uploaded'
		RETURNING ` + videoColumns
	var v models.Video
	err = tx.QueryRow(ctx, q, videoID, userID).Scan(&v.ID, &v.UserID, &v.StorageKey, &v.OriginalName, &v.ContentType,
		&v.Size, &v.Duration, &v.Status, &v.FailureReason, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	const jobQ = `UPDATE generation_jobs SET status = 'running', attempts = attempts + 1, started_at = NOW()
		WHERE video_id = $1`
	if _, err := tx.Exec(ctx, jobQ, videoID); err != nil {
		return nil, fmt.Errorf("mark job running: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetUser implements Store.
func (r *Repository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const q = `SELECT id, name, email, plan, clips_used, clips_limit, created_at FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, userID).Scan(&u.ID, &u.Name, &u.Email, &u.Plan, &u.ClipsUsed, &u.ClipsLimit, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CompleteGeneration implements Store.
func (r *Repository) CompleteGeneration(ctx context.Context, c Completion) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const videoQ = `UPDATE videos SET status = 'ready', duration = $1, failure_reason = NULL, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = 'processing'`
	tag, err := tx.Exec(ctx, videoQ, c.Duration, c.VideoID, c.UserID)
	if err != nil {
		return fmt.Errorf("mark video ready: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: video %d is no longer processing", apperrors.ErrConflict, c.VideoID)
	}

	columns := []string{"video_id", "user_id", "title", "storage_key", "start_time", "end_time", "duration", "ai_score", "status"}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"clips"}, columns, pgx.CopyFromSlice(len(c.Clips), func(i int) ([]any, error) {
		cl := c.Clips[i]
		return []any{cl.VideoID, cl.UserID, cl.Title, cl.StorageKey, cl.StartTime, cl.EndTime, cl.Duration, cl.AIScore, string(cl.Status)}, nil
	}))
	if err != nil {
		return fmt.Errorf("insert clips: %w", err)
	}

	const quotaQ = `UPDATE users SET clips_used = clips_used + $1 WHERE id = $2`
	if _, err := tx.Exec(ctx, quotaQ, len(c.Clips), c.UserID); err != nil {
		return fmt.Errorf("increment clips_used: %w", err)
	}

	const jobQ = `UPDATE generation_jobs SET status = 'succeeded', error = NULL, finished_at = NOW() WHERE video_id = $1`
	if _, err := tx.Exec(ctx, jobQ, c.VideoID); err != nil {
		return fmt.Errorf("mark job succeeded: %w", err)
	}
	return tx.Commit(ctx)
}

// FailGeneration implements Store.
func (r *Repository) FailGeneration(ctx context.Context, videoID int64, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const videoQ = `UPDATE videos SET status = 'failed', failure_reason = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ('uploaded', 'processing')`
	if _, err := tx.Exec(ctx, videoQ, reason, videoID); err != nil {
		return fmt.Errorf("mark video failed: %w", err)
	}
	const jobQ = `UPDATE generation_jobs SET status = 'failed', error = $1, finished_at = NOW()
		WHERE video_id = $2 AND status IN ('queued', 'running')`
	if _, err := tx.Exec(ctx, jobQ, reason, videoID); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return tx.Commit(ctx)
}

// ListQueuedBefore returns queued jobs last dispatched before cutoff, oldest dispatch first.
func (r *Repository) ListQueuedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.GenerationJob, error) {
	const q = `SELECT id, video_id, user_id, status, attempts, COALESCE(error,''), created_at, dispatched_at, started_at, finished_at
		FROM generation_jobs WHERE status = 'queued' AND dispatched_at < $1 ORDER BY dispatched_at LIMIT $2`
	rows, err := r.pool.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.GenerationJob
	for rows.Next() {
		var j models.GenerationJob
		if err := rows.Scan(&j.ID, &j.VideoID, &j.UserID, &j.Status, &j.Attempts, &j.Error, &j.CreatedAt, &j.DispatchedAt, &j.StartedAt, &j.FinishedAt); err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

// MarkDispatched records that a still queued job was just handed to the worker pool.
func (r *Repository) MarkDispatched(ctx context.Context, jobID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE generation_jobs SET dispatched_at = NOW() WHERE id = $1 AND status = 'queued'`, jobID)
	return err
}

// FailRunningBefore fails running jobs started before cutoff together with their processing videos.
// It returns the affected video ids.
func (r *Repository) FailRunningBefore(ctx context.Context, cutoff time.Time, reason string) ([]int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const jobQ = `UPDATE generation_jobs SET status = 'failed', error = $1, finished_at = NOW()
		WHERE status = 'running' AND started_at < $2 RETURNING video_id`
	rows, err := tx.Query(ctx, jobQ, reason, cutoff)
	if err != nil {
		return nil, err
	}
	videoIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}

	const videoQ = `UPDATE videos SET status = 'failed', failure_reason = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = 'processing'`
	if _, err := tx.Exec(ctx, videoQ, reason, videoIDs); err != nil {
		return nil, fmt.Errorf("mark videos failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return videoIDs, nil
}
