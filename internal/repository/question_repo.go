package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cuckoo-backend/internal/models"
)

// ErrDuplicate is returned when a unique column (question title or text,
// username, email) already holds the value.
var ErrDuplicate = errors.New("duplicate value")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

const questionColumns = `q.id, q.title, q.text, q.created_at,
	COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}') AS tags`

const questionJoins = `FROM questions q
	LEFT JOIN question_tags qt ON qt.question_id = q.id
	LEFT JOIN tags t ON t.id = qt.tag_id`

func scanQuestion(row pgx.Row) (*models.Question, error) {
	q := &models.Question{}
	if err := row.Scan(&q.ID, &q.Title, &q.Text, &q.CreatedAt, &q.Tags); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuestionRepo) Create(ctx context.Context, q *models.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (title, text) VALUES ($1, $2) RETURNING id, created_at`,
		q.Title, q.Text,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}

	q.Tags = models.NormalizeTags(q.Tags)
	if err := setTags(ctx, tx, q.ID, q.Tags); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *QuestionRepo) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` ` + questionJoins + `
		WHERE q.id = $1 GROUP BY q.id`
	return scanQuestion(r.pool.QueryRow(ctx, query, id))
}

// Random returns pgx.ErrNoRows when the table is empty.
func (r *QuestionRepo) Random(ctx context.Context) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` ` + questionJoins + `
		WHERE q.id = (SELECT id FROM questions ORDER BY random() LIMIT 1)
		GROUP BY q.id`
	return scanQuestion(r.pool.QueryRow(ctx, query))
}

func (r *QuestionRepo) List(ctx context.Context, filter models.QuestionFilter) ([]*models.Question, error) {
	var (
		where []string
		args  []interface{}
	)
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(q.title ILIKE $%d OR q.text ILIKE $%d)", len(args), len(args)))
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		args = append(args, tag)
		where = append(where, fmt.Sprintf(`EXISTS (SELECT 1 FROM question_tags fqt JOIN tags ft ON ft.id = fqt.tag_id
			WHERE fqt.question_id = q.id AND ft.name = $%d)`, len(args)))
	}

	query := `SELECT ` + questionColumns + ` ` + questionJoins
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY q.id ORDER BY q.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]*models.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListIDs is the snapshot a quiz is drawn from.
func (r *QuestionRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, "SELECT id FROM questions ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *QuestionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions").Scan(&n)
	return n, err
}

// Update writes title, text and replaces the tag set.
func (r *QuestionRepo) Update(ctx context.Context, q *models.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "UPDATE questions SET title = $1, text = $2 WHERE id = $3", q.Title, q.Text, q.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, "DELETE FROM question_tags WHERE question_id = $1", q.ID); err != nil {
		return err
	}
	q.Tags = models.NormalizeTags(q.Tags)
	if err := setTags(ctx, tx, q.ID, q.Tags); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Delete returns pgx.ErrNoRows when nothing was removed.
func (r *QuestionRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM questions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *QuestionRepo) ListTags(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT t.name FROM tags t
		JOIN question_tags qt ON qt.tag_id = t.id ORDER BY t.name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func setTags(ctx context.Context, tx pgx.Tx, questionID int64, names []string) error {
	for _, name := range names {
		var tagID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO question_tags (question_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			questionID, tagID,
		); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}
