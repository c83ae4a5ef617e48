// Package companies keeps the company list in memory so form handlers can
// answer company questions synchronously.
package companies

import (
	"context"
	"fmt"
	"sync"
)

// Directory is a reloadable snapshot of the companies table.
type Directory struct {
	repo     Repository
	fallback string

	mu     sync.RWMutex
	list   []Company
	byName map[string]Company
}

// NewDirectory builds an empty directory. fallback is the currency reported
// for companies without a default currency, the system default.
func NewDirectory(repo Repository, fallback string) *Directory {
	return &Directory{repo: repo, fallback: fallback, byName: map[string]Company{}}
}

// Load replaces the snapshot with the repository contents.
func (d *Directory) Load(ctx context.Context) error {
	list, err := d.repo.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]Company, len(list))
	for _, c := range list {
		if err := validate(c); err != nil {
			return fmt.Errorf("companies: load: %w", err)
		}
		byName[c.Name] = c
	}
	d.mu.Lock()
	d.list = list
	d.byName = byName
	d.mu.Unlock()
	return nil
}

// Set replaces the snapshot directly.
func (d *Directory) Set(list []Company) {
	byName := make(map[string]Company, len(list))
	for _, c := range list {
		byName[c.Name] = c
	}
	d.mu.Lock()
	d.list = append([]Company(nil), list...)
	d.byName = byName
	d.mu.Unlock()
}

// Currency returns the default currency of company, or the fallback when the
// company is unknown or has none.
func (d *Directory) Currency(company string) string {
	d.mu.RLock()
	c, ok := d.byName[company]
	d.mu.RUnlock()
	if ok && c.DefaultCurrency != "" {
		return c.DefaultCurrency
	}
	return d.fallback
}

// Only reports the company when exactly one exists.
func (d *Directory) Only() (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.list) != 1 {
		return "", false
	}
	return d.list[0].Name, true
}

// List returns a copy of the snapshot.
func (d *Directory) List() []Company {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Company(nil), d.list...)
}
