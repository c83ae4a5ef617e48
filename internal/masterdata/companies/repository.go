package companies

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	List(ctx context.Context) ([]Company, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, abbr, COALESCE(default_currency, '') FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("companies: list: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.Name, &c.Abbr, &c.DefaultCurrency); err != nil {
			return nil, fmt.Errorf("companies: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
