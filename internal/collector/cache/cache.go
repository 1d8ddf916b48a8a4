// Package cache wraps a collector with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/newthinker/smaprob/internal/collector"
	"github.com/newthinker/smaprob/internal/core"
)

const defaultPrefix = "smaprob:"

// Client is the subset of *redis.Client used by the cache
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Options configures the cache
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewClient creates a Redis client from options
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// Cache is a collector.Collector that serves history from Redis when present.
// Redis failures are logged and fall through to the wrapped collector.
type Cache struct {
	next   collector.Collector
	client Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// New wraps next with a cache backed by client
func New(next collector.Collector, client Client, opts Options, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{
		next:   next,
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
		logger: logger,
	}
}

func (c *Cache) Name() string {
	return c.next.Name()
}

func (c *Cache) Init(cfg collector.Config) error {
	return c.next.Init(cfg)
}

// Key returns the cache key for a history request. Dates are keyed in UTC.
func (c *Cache) Key(symbol string, start, end time.Time) string {
	return c.prefix + "history:" + symbol + ":" + start.UTC().Format(core.DateLayout) + ":" + end.UTC().Format(core.DateLayout)
}

// FetchHistory returns cached bars or fetches and stores them
func (c *Cache) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	key := c.Key(symbol, start, end)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []core.OHLCV
		if jerr := json.Unmarshal(data, &bars); jerr == nil && len(bars) > 0 {
			c.logger.Debug("cache hit", zap.String("key", key), zap.Int("bars", len(bars)))
			return bars, nil
		}
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	bars, err := c.next.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(bars)
	if err != nil {
		c.logger.Warn("encoding cache entry", zap.String("key", key), zap.Error(err))
		return bars, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return bars, nil
}
