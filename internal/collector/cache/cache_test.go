package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/smaprob/internal/collector"
	"github.com/newthinker/smaprob/internal/core"
)

type fakeClient struct {
	data   map[string]string
	getErr error
	setErr error
	ttl    time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string]string)}
}

func (f *fakeClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.ttl = expiration
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

type countingCollector struct {
	calls int
	err   error
}

func (c *countingCollector) Name() string { return "counting" }
func (c *countingCollector) Init(cfg collector.Config) error { return nil }
func (c *countingCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []core.OHLCV{
		{Symbol: symbol, Close: 10, Time: start},
		{Symbol: symbol, Close: 11, Time: start.AddDate(0, 0, 1)},
	}, nil
}

var (
	start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func TestCache_Key(t *testing.T) {
	c := New(&countingCollector{}, newFakeClient(), Options{}, nil)
	assert.Equal(t, "smaprob:history:SPY:2024-01-02:2024-03-01", c.Key("SPY", start, end))
}

func TestCache_Key_SameInstantAcrossZones(t *testing.T) {
	c := New(&countingCollector{}, newFakeClient(), Options{}, nil)
	tokyo := time.FixedZone("JST", 9*3600)

	// 2024-01-02 00:00 UTC is 09:00 in Tokyo; 2024-03-01 00:00 UTC likewise.
	assert.Equal(t, c.Key("SPY", start, end), c.Key("SPY", start.In(tokyo), end.In(tokyo)))
}

func TestCache_MissThenHit(t *testing.T) {
	next := &countingCollector{}
	client := newFakeClient()
	c := New(next, client, Options{TTL: time.Hour}, nil)

	first, err := c.FetchHistory(context.Background(), "SPY", start, end)
	require.NoError(t, err)
	second, err := c.FetchHistory(context.Background(), "SPY", start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Hour, client.ttl)
	require.Len(t, second, 2)
	assert.Equal(t, first[1].Close, second[1].Close)
	assert.True(t, first[0].Time.Equal(second[0].Time))
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	next := &countingCollector{}
	client := newFakeClient()
	client.getErr = errors.New("connection refused")
	client.setErr = errors.New("connection refused")
	c := New(next, client, Options{}, nil)

	bars, err := c.FetchHistory(context.Background(), "SPY", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 1, next.calls)
}

func TestCache_CorruptEntryRefetched(t *testing.T) {
	next := &countingCollector{}
	client := newFakeClient()
	c := New(next, client, Options{}, nil)
	client.data[c.Key("SPY", start, end)] = "not json"

	bars, err := c.FetchHistory(context.Background(), "SPY", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 1, next.calls)
}

func TestCache_ErrorsNotCached(t *testing.T) {
	next := &countingCollector{err: core.ErrDataUnavailable}
	client := newFakeClient()
	c := New(next, client, Options{}, nil)

	_, err := c.FetchHistory(context.Background(), "ZZZZ", start, end)
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
	assert.Empty(t, client.data)
}

func TestCache_DelegatesName(t *testing.T) {
	c := New(&countingCollector{}, newFakeClient(), Options{}, nil)
	assert.Equal(t, "counting", c.Name())
}
