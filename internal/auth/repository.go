package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
	"github.com/clipai/backend/pkg/database"
)

// UserStore persists users.
type UserStore interface {
	// Create inserts u and fills ID, defaults and CreatedAt. Duplicate emails fail with apperrors.ErrConflict.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, COALESCE(avatar,''), plan, clips_used, clips_limit, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Avatar, &u.Plan, &u.ClipsUsed, &u.ClipsLimit, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	if u.Plan == "" {
		u.Plan = models.PlanFree
	}
	if u.ClipsLimit == 0 {
		u.ClipsLimit = models.DefaultClipsLimit
	}
	const q = `INSERT INTO users (name, email, password_hash, avatar, plan, clips_used, clips_limit)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, u.Name, u.Email, u.Password, u.Avatar, string(u.Plan), u.ClipsUsed, u.ClipsLimit).
		Scan(&u.ID, &u.CreatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	}
	return err
}
