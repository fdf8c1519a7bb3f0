package comments

import (
	"context"
	"database/sql"
	"fmt"

	"mapdata-api/pkg/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS comments (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	feedback   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const createdAtIndex = `CREATE INDEX IF NOT EXISTS comments_created_at_idx ON comments (created_at DESC)`

// PostgresRepo stores comments through database/sql on the pgx driver.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// EnsureSchema creates the comments table and its index if missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("create comments table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, createdAtIndex); err != nil {
			return fmt.Errorf("create comments index: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepo) Insert(ctx context.Context, c Comment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, name, email, feedback, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Email, c.Feedback, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotSaved
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, feedback, created_at FROM comments ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Feedback, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
