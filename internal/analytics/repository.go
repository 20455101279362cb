package analytics

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// Repository handles analytics persistence and aggregation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts rec if the clip belongs to rec.UserID.
func (r *Repository) Create(ctx context.Context, rec *models.AnalyticsRecord) error {
	const q = `INSERT INTO analytics (user_id, clip_id, platform, date, views, likes, comments, shares)
		SELECT c.user_id, c.id, $3::text, $4::date, $5::bigint, $6::bigint, $7::bigint, $8::bigint
		FROM clips c WHERE c.id = $2 AND c.user_id = $1
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, rec.UserID, rec.ClipID, string(rec.Platform), rec.Date,
		rec.Views, rec.Likes, rec.Comments, rec.Shares).Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return err
}

// Summary sums all of the user's records. No rows yields zeros.
func (r *Repository) Summary(ctx context.Context, userID int64) (models.AnalyticsSummary, error) {
	const q = `SELECT COALESCE(SUM(views),0), COALESCE(SUM(likes),0), COALESCE(SUM(comments),0),
		COALESCE(SUM(shares),0), COUNT(*)
		FROM analytics WHERE user_id = $1`
	var s models.AnalyticsSummary
	err := r.pool.QueryRow(ctx, q, userID).Scan(&s.TotalViews, &s.TotalLikes, &s.TotalComments, &s.TotalShares, &s.TotalPosts)
	return s, err
}

// ByPlatform sums the user's records per platform.
func (r *Repository) ByPlatform(ctx context.Context, userID int64) ([]models.PlatformBreakdown, error) {
	const q = `SELECT platform, COALESCE(SUM(views),0), COALESCE(SUM(likes),0), COALESCE(SUM(comments),0),
		COALESCE(SUM(shares),0), COUNT(*)
		FROM analytics WHERE user_id = $1 GROUP BY platform ORDER BY platform`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PlatformBreakdown
	for rows.Next() {
		var b models.PlatformBreakdown
		if err := rows.Scan(&b.Platform, &b.Views, &b.Likes, &b.Comments, &b.Shares, &b.Records); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
