package fx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/blanketorder/internal/platform/db"
)

// Repository reads and writes currency_exchange rows.
type Repository interface {
	Latest(ctx context.Context, from, to string, date time.Time, side string) (float64, bool, error)
	Pairs(ctx context.Context) ([]Pair, error)
	Save(ctx context.Context, rates []Rate) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Latest uses a dynamic query since the side filter is optional.
func (r *repository) Latest(ctx context.Context, from, to string, date time.Time, side string) (float64, bool, error) {
	query := `SELECT exchange_rate FROM currency_exchange
WHERE from_currency = $1 AND to_currency = $2 AND date <= $3`
	switch side {
	case ForSelling:
		query += ` AND for_selling`
	case ForBuying:
		query += ` AND for_buying`
	}
	query += ` ORDER BY date DESC LIMIT 1`

	var rate float64
	err := r.pool.QueryRow(ctx, query, from, to, date).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("fx: latest %s/%s: %w", from, to, err)
	}
	return rate, true, nil
}

func (r *repository) Pairs(ctx context.Context) ([]Pair, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT from_currency, to_currency FROM currency_exchange ORDER BY 1, 2`)
	if err != nil {
		return nil, fmt.Errorf("fx: pairs: %w", err)
	}
	defer rows.Close()
	var out []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.From, &p.To); err != nil {
			return nil, fmt.Errorf("fx: scan pair: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Save(ctx context.Context, rates []Rate) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rt := range rates {
			batch.Queue(`INSERT INTO currency_exchange (date, from_currency, to_currency, exchange_rate, for_selling, for_buying)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (date, from_currency, to_currency)
DO UPDATE SET exchange_rate = EXCLUDED.exchange_rate, for_selling = EXCLUDED.for_selling, for_buying = EXCLUDED.for_buying`,
				rt.Date, rt.From, rt.To, rt.ExchangeRate, rt.ForSelling, rt.ForBuying)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("fx: save rates: %w", err)
		}
		return nil
	})
}
