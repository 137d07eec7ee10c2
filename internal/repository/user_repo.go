package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"cuckoo-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByLogin matches either the username or the email.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, email, password_hash, is_admin, created_at
		FROM users WHERE username = $1 OR LOWER(email) = LOWER($1)
		ORDER BY (username = $1) DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, login).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Exists reports which of username / email are already taken.
func (r *UserRepo) Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM users WHERE username = $1),
			EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($2))
	`, username, email).Scan(&usernameTaken, &emailTaken)
	return
}
