package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/odyssey-erp/blanketorder/internal/fx"
)

// RateStore is the part of the fx service the operational commands use.
type RateStore interface {
	Import(ctx context.Context, rates []fx.Rate) error
	ExchangeRate(ctx context.Context, transactionDate, from, to, args string) (float64, error)
}

// FXOpsCLI offers operational helpers to manage exchange rates.
type FXOpsCLI struct {
	rates RateStore
}

// NewFXOpsCLI constructs a new helper instance.
func NewFXOpsCLI(rates RateStore) (*FXOpsCLI, error) {
	if rates == nil {
		return nil, errors.New("fx cli: rate store required")
	}
	return &FXOpsCLI{rates: rates}, nil
}

// FXImportOptions defines available flags for the fx import command.
type FXImportOptions struct {
	Path       string
	Source     io.Reader
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// FXImportSummary describes the JSON response for fx import.
type FXImportSummary struct {
	Imported int      `json:"imported"`
	Pairs    []string `json:"pairs"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

// ImportCommand loads a YAML rate sheet and stores it.
func (c *FXOpsCLI) ImportCommand(ctx context.Context, opts FXImportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	src := opts.Source
	if src == nil {
		if strings.TrimSpace(opts.Path) == "" {
			_, _ = fmt.Fprintln(opts.Stderr, "fx import: a rate sheet path is required")
			return 1
		}
		file, err := os.Open(opts.Path)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
			return 1
		}
		defer file.Close()
		src = file
	}
	rates, err := fx.ParseRates(src)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
		return 1
	}
	if len(rates) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "fx import: rate sheet is empty")
		return 1
	}
	if err := c.rates.Import(ctx, rates); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
		return 1
	}
	summary := summarizeImport(rates)
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "fx import: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Imported %d rate(s) for %s between %s and %s\n",
		summary.Imported, strings.Join(summary.Pairs, ", "), summary.From, summary.To)
	return 0
}

func summarizeImport(rates []fx.Rate) FXImportSummary {
	seen := make(map[string]struct{})
	summary := FXImportSummary{Imported: len(rates)}
	for _, r := range rates {
		pair := strings.ToUpper(r.From) + strings.ToUpper(r.To)
		if _, ok := seen[pair]; !ok {
			seen[pair] = struct{}{}
			summary.Pairs = append(summary.Pairs, pair)
		}
		if summary.From == "" || r.Date < summary.From {
			summary.From = r.Date
		}
		if r.Date > summary.To {
			summary.To = r.Date
		}
	}
	sort.Strings(summary.Pairs)
	return summary
}

// FXRateOptions defines available flags for the fx rate command.
type FXRateOptions struct {
	From   string
	To     string
	Date   string
	Side   string
	Stdout io.Writer
	Stderr io.Writer
}

// RateCommand prints the rate a form would receive for the given lookup.
func (c *FXOpsCLI) RateCommand(ctx context.Context, opts FXRateOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.From == "" || opts.To == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "fx rate: --from and --to are required")
		return 1
	}
	side := opts.Side
	switch side {
	case "", "selling":
		side = fx.ForSelling
	case "buying":
		side = fx.ForBuying
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "fx rate: invalid side %q (expected selling or buying)\n", opts.Side)
		return 1
	}
	date := opts.Date
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
	}
	rate, err := c.rates.ExchangeRate(ctx, date, opts.From, opts.To, side)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "fx rate: %v\n", err)
		if errors.Is(err, fx.ErrRateNotFound) {
			return 10
		}
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "1 %s = %s %s (%s, %s)\n",
		strings.ToUpper(opts.From), formatRate(rate), strings.ToUpper(opts.To), side, date)
	return 0
}

func formatRate(v float64) string {
	s := fmt.Sprintf("%.9f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
