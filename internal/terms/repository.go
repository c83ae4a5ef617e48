package terms

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads terms templates.
type Repository interface {
	Get(ctx context.Context, name string) (Template, error)
	List(ctx context.Context, filter Filter) ([]Template, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, name string) (Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx, `SELECT name, COALESCE(terms, ''), disabled, selling, buying
FROM terms_and_conditions WHERE name = $1`, name).Scan(&t.Name, &t.Terms, &t.Disabled, &t.Selling, &t.Buying)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Template{}, fmt.Errorf("terms: get %s: %w", name, err)
	}
	return t, nil
}

// List uses a dynamic query since both side filters are optional.
func (r *repository) List(ctx context.Context, filter Filter) ([]Template, error) {
	query := `SELECT name, COALESCE(terms, ''), disabled, selling, buying FROM terms_and_conditions WHERE NOT disabled`
	if filter.Selling {
		query += ` AND selling`
	}
	if filter.Buying {
		query += ` AND buying`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("terms: list: %w", err)
	}
	defer rows.Close()
	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.Name, &t.Terms, &t.Disabled, &t.Selling, &t.Buying); err != nil {
			return nil, fmt.Errorf("terms: scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
