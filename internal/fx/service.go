package fx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/currency"
)

// loadTimeout bounds a shared lookup once it no longer follows any caller.
const loadTimeout = 10 * time.Second

// Service answers exchange-rate lookups.
type Service struct {
	repo        Repository
	cache       *Cache
	logger      *slog.Logger
	group       singleflight.Group
	now         func() time.Time
	loadTimeout time.Duration
}

// NewService wires the repository and cache.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cache != nil && cache.logger == nil {
		cache.logger = logger
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now, loadTimeout: loadTimeout}
}

// ExchangeRate resolves the rate converting one unit of from into to on
// transactionDate (YYYY-MM-DD, today when empty). args restricts the lookup to
// selling or buying rates. A missing currency yields zero without error.
func (s *Service) ExchangeRate(ctx context.Context, transactionDate, from, to, args string) (float64, error) {
	if from == "" || to == "" {
		return 0, nil
	}
	date := s.now()
	if transactionDate != "" {
		parsed, err := time.Parse(time.DateOnly, transactionDate)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDate, transactionDate)
		}
		date = parsed
	}
	return s.Rate(ctx, Query{Date: date, From: from, To: to, Side: args})
}

// Rate resolves q, trying the inverse pair when the direct pair has no rate.
func (s *Service) Rate(ctx context.Context, q Query) (float64, error) {
	from, err := normalizeCurrency(q.From)
	if err != nil {
		return 0, err
	}
	to, err := normalizeCurrency(q.To)
	if err != nil {
		return 0, err
	}
	if from == to {
		return 1, nil
	}
	q.From, q.To = from, to
	q.Date = q.Date.UTC().Truncate(24 * time.Hour)

	key, err := s.cache.BuildKey(ctx, rateKey(q)...)
	if err != nil {
		s.logger.Warn("fx cache version", slog.Any("error", err))
		return s.load(ctx, q)
	}
	// Waiters share one load; a caller that gives up must not cancel it for
	// the others, so it runs detached and bounded by loadTimeout.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return s.cache.Fetch(loadCtx, key, func(ctx context.Context) (float64, error) {
			return s.load(ctx, q)
		})
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

func (s *Service) load(ctx context.Context, q Query) (float64, error) {
	rate, ok, err := s.repo.Latest(ctx, q.From, q.To, q.Date, q.Side)
	if err != nil {
		return 0, err
	}
	if ok {
		return rate, nil
	}
	inverse, ok, err := s.repo.Latest(ctx, q.To, q.From, q.Date, q.Side)
	if err != nil {
		return 0, err
	}
	if !ok || inverse == 0 {
		return 0, fmt.Errorf("%w: %s to %s on %s", ErrRateNotFound, q.From, q.To, q.Date.Format(time.DateOnly))
	}
	return decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(inverse), 9).InexactFloat64(), nil
}

// Warm resolves every recorded pair for both sides on date so the first form
// of the day finds the cache populated. It returns how many rates resolved.
func (s *Service) Warm(ctx context.Context, date time.Time) (int, error) {
	pairs, err := s.repo.Pairs(ctx)
	if err != nil {
		return 0, err
	}
	results := make([]bool, len(pairs)*2)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range pairs {
		for j, side := range []string{ForSelling, ForBuying} {
			idx := i*2 + j
			q := Query{Date: date, From: p.From, To: p.To, Side: side}
			g.Go(func() error {
				_, err := s.Rate(gctx, q)
				switch {
				case err == nil:
					results[idx] = true
				case isNotFound(err):
				default:
					return err
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("fx: warm: %w", err)
	}
	warmed := 0
	for _, ok := range results {
		if ok {
			warmed++
		}
	}
	s.logger.Info("fx cache warmed", slog.Int("pairs", len(pairs)), slog.Int("rates", warmed))
	return warmed, nil
}

// Import stores rates and invalidates the cache.
func (s *Service) Import(ctx context.Context, rates []Rate) error {
	for i := range rates {
		from, err := normalizeCurrency(rates[i].From)
		if err != nil {
			return err
		}
		to, err := normalizeCurrency(rates[i].To)
		if err != nil {
			return err
		}
		if _, err := time.Parse(time.DateOnly, rates[i].Date); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, rates[i].Date)
		}
		if rates[i].ExchangeRate <= 0 {
			return fmt.Errorf("fx: rate %s/%s on %s must be positive", from, to, rates[i].Date)
		}
		rates[i].From, rates[i].To = from, to
	}
	if err := s.repo.Save(ctx, rates); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

func normalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}
