// Package cache wraps a candle provider with a read-through cache kept in
// redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/provider"
)

// ErrMiss is returned by a Store for an absent key.
var ErrMiss = errors.New("cache miss")

// Store is the small key/value surface the cache needs.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisStore keeps JSON values in redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	slog.Info("connected to redis", "addr", addr, "db", db)
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string, dest any) error {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (r *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, b, ttl).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Provider serves candles from Store when present and otherwise asks Inner,
// storing non-empty answers for TTL. Store failures are logged and never
// fail a request.
type Provider struct {
	Inner provider.Provider
	Store Store
	TTL   time.Duration
}

func (p *Provider) Name() string {
	return "cache(" + p.Inner.Name() + ")"
}

// Key is the cache key for req. Start and End are truncated to the bar
// boundary so requests made within the same bar share an entry.
func Key(req provider.Request) string {
	bar := req.Interval.Duration()
	return fmt.Sprintf("chartscan:candles:%s:%s:%d:%d",
		market.NormalizeInstrument(req.Symbol), req.Interval,
		unix(req.Start, bar), unix(req.End, bar))
}

func unix(t time.Time, bar time.Duration) int64 {
	if t.IsZero() {
		return 0
	}
	if bar > 0 {
		t = t.Truncate(bar)
	}
	return t.Unix()
}

func (p *Provider) Candles(ctx context.Context, req provider.Request) ([]market.Candle, error) {
	key := Key(req)

	var cached []market.Candle
	switch err := p.Store.Get(ctx, key, &cached); {
	case err == nil && len(cached) > 0:
		slog.Debug("candle cache hit", "key", key, "count", len(cached))
		return cached, nil
	case err != nil && !errors.Is(err, ErrMiss):
		slog.Warn("candle cache read failed", "key", key, "err", err)
	}

	candles, err := p.Inner.Candles(ctx, req)
	if err != nil || len(candles) == 0 {
		return candles, err
	}
	if err := p.Store.Set(ctx, key, candles, p.TTL); err != nil {
		slog.Warn("candle cache write failed", "key", key, "err", err)
	}
	return candles, nil
}
