package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "fx:version"
	bumpChannel     = "fx.bump"
)

// Cache stores resolved rates in Redis under versioned keys; bumping the
// version drops every cached rate at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// raiseVersion moves the version forward only; an older bump arriving late
// leaves it alone.
var raiseVersion = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0') or 0
local ver = tonumber(ARGV[1])
if ver > cur then
  redis.call('SET', KEYS[1], ARGV[1])
  return ver
end
return cur
`)

// NewCache builds the cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a key suffixed with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// Fetch returns the cached rate under key or stores what loader returns.
// Loader errors are not cached. A failed cache write is logged and the loaded
// rate is still returned.
func (c *Cache) Fetch(ctx context.Context, key string, loader func(context.Context) (float64, error)) (float64, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rate float64
		if err := json.Unmarshal(payload, &rate); err != nil {
			return 0, fmt.Errorf("fx: decode cached rate: %w", err)
		}
		return rate, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}
	rate, err := loader(ctx)
	if err != nil {
		return 0, err
	}
	raw, err := json.Marshal(rate)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log().Warn("fx cache write", slog.String("key", key), slog.Any("error", err))
	}
	return rate, nil
}

// Bump invalidates every cached rate and tells other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows version bumps published by other instances
// until ctx ends.
func (c *Cache) ListenForInvalidation(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("fx: subscribe: %w", err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					continue
				}
				if _, err := c.RaiseVersion(ctx, ver); err != nil {
					c.log().Warn("fx cache version raise", slog.Int64("version", ver), slog.Any("error", err))
				}
			}
		}
	}()
	return nil
}

// RaiseVersion sets the version to ver when ver is newer and returns the
// version in effect afterwards.
func (c *Cache) RaiseVersion(ctx context.Context, ver int64) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	return raiseVersion.Run(ctx, c.client, []string{cacheVersionKey}, ver).Int64()
}

func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func rateKey(q Query) []string {
	side := q.Side
	if side == "" {
		side = "any"
	}
	return []string{"fx", "rate", q.From, q.To, side, q.Date.Format(time.DateOnly)}
}
