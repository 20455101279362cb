package schedule

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// Repository handles scheduled post persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a scheduled post repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postColumns = `id, user_id, clip_id, platforms, caption, hashtags, scheduled_at, status, created_at, updated_at`

func scanPost(row pgx.Row) (*models.ScheduledPost, error) {
	var (
		p         models.ScheduledPost
		platforms []string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.ClipID, &platforms, &p.Caption, &p.Hashtags, &p.ScheduledAt,
		&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Platforms = make([]models.Platform, len(platforms))
	for i, s := range platforms {
		p.Platforms[i] = models.Platform(s)
	}
	return &p, nil
}

// Create inserts a pending post.
func (r *Repository) Create(ctx context.Context, p *models.ScheduledPost) error {
	const q = `INSERT INTO scheduled_posts (user_id, clip_id, platforms, caption, hashtags, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.UserID, p.ClipID, models.PlatformStrings(p.Platforms), p.Caption, p.Hashtags,
		p.ScheduledAt, string(p.Status)).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// ListByUser returns the user's posts ordered by scheduled_at.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.ScheduledPost, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+postColumns+` FROM scheduled_posts
		WHERE user_id = $1 ORDER BY scheduled_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ScheduledPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Cancel moves a pending post owned by userID to canceled.
func (r *Repository) Cancel(ctx context.Context, userID, postID int64) (*models.ScheduledPost, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, `UPDATE scheduled_posts
		SET status = 'canceled', updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
		RETURNING `+postColumns, postID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return p, err
}
