package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads party records.
type Repository interface {
	PrimaryAddress(ctx context.Context, linkDoctype, linkName string) (string, bool, error)
	Address(ctx context.Context, name string) (Address, error)
	PrimaryContact(ctx context.Context, linkDoctype, linkName string) (string, bool, error)
	Contact(ctx context.Context, name string) (Contact, error)
	Value(ctx context.Context, table, column, name string) (any, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) PrimaryAddress(ctx context.Context, linkDoctype, linkName string) (string, bool, error) {
	return r.primary(ctx, `SELECT a.name FROM addresses a
JOIN dynamic_links l ON l.parent = a.name AND l.parenttype = 'Address'
WHERE l.link_doctype = $1 AND l.link_name = $2 AND NOT a.disabled
ORDER BY a.is_primary_address DESC, a.name LIMIT 1`, linkDoctype, linkName)
}

func (r *repository) PrimaryContact(ctx context.Context, linkDoctype, linkName string) (string, bool, error) {
	return r.primary(ctx, `SELECT c.name FROM contacts c
JOIN dynamic_links l ON l.parent = c.name AND l.parenttype = 'Contact'
WHERE l.link_doctype = $1 AND l.link_name = $2
ORDER BY c.is_primary_contact DESC, c.name LIMIT 1`, linkDoctype, linkName)
}

func (r *repository) primary(ctx context.Context, query, linkDoctype, linkName string) (string, bool, error) {
	var name string
	err := r.pool.QueryRow(ctx, query, linkDoctype, linkName).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("party: primary for %s %s: %w", linkDoctype, linkName, err)
	}
	return name, true, nil
}

func (r *repository) Address(ctx context.Context, name string) (Address, error) {
	var a Address
	err := r.pool.QueryRow(ctx, `SELECT name, address_line1, COALESCE(address_line2, ''), city,
COALESCE(state, ''), COALESCE(pincode, ''), country, COALESCE(phone, ''), COALESCE(email_id, '')
FROM addresses WHERE name = $1`, name).Scan(
		&a.Name, &a.AddressLine1, &a.AddressLine2, &a.City, &a.State, &a.Pincode, &a.Country, &a.Phone, &a.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Address{}, fmt.Errorf("%w: address %s", ErrNotFound, name)
	}
	if err != nil {
		return Address{}, fmt.Errorf("party: address %s: %w", name, err)
	}
	return a, nil
}

func (r *repository) Contact(ctx context.Context, name string) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `SELECT name, COALESCE(first_name, ''), COALESCE(last_name, ''),
COALESCE(email_id, ''), COALESCE(mobile_no, ''), COALESCE(phone, '')
FROM contacts WHERE name = $1`, name).Scan(&c.Name, &c.FirstName, &c.LastName, &c.Email, &c.Mobile, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, fmt.Errorf("%w: contact %s", ErrNotFound, name)
	}
	if err != nil {
		return Contact{}, fmt.Errorf("party: contact %s: %w", name, err)
	}
	return c, nil
}

// Value reads one column; table and column come from the fetch allow list,
// never from the caller.
func (r *repository) Value(ctx context.Context, table, column, name string) (any, error) {
	query := `SELECT ` + pgx.Identifier{column}.Sanitize() + ` FROM ` + pgx.Identifier{table}.Sanitize() + ` WHERE name = $1`
	var v any
	err := r.pool.QueryRow(ctx, query, name).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, table, name)
	}
	if err != nil {
		return nil, fmt.Errorf("party: fetch %s.%s: %w", table, column, err)
	}
	return v, nil
}
