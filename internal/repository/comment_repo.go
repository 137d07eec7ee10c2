package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"cuckoo-backend/internal/models"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	query := `INSERT INTO comments (text, user_id, question_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, (SELECT username FROM users WHERE id = $2)`

	return r.pool.QueryRow(ctx, query, c.Text, c.UserID, c.QuestionID).Scan(&c.ID, &c.CreatedAt, &c.Username)
}

func (r *CommentRepo) ListByQuestion(ctx context.Context, questionID int64) ([]*models.Comment, error) {
	query := `SELECT c.id, c.text, c.user_id, u.username, c.question_id, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.question_id = $1 ORDER BY c.created_at, c.id`

	rows, err := r.pool.Query(ctx, query, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.Text, &c.UserID, &c.Username, &c.QuestionID, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
