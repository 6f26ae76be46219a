package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/ports"
)

const keyPrefix = "vsched:solve:"

// RedisSolutionCache stores solve results keyed by instance, algorithm,
// strategy and boundary policy. Solves are deterministic, so an entry stays
// valid until the instance files change; TTL bounds that window.
type RedisSolutionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSolutionCache(rdb *redis.Client, ttl time.Duration) *RedisSolutionCache {
	return &RedisSolutionCache{rdb: rdb, ttl: ttl}
}

// NewRedisSolutionCacheFromURL parses a redis:// URL and pings the server.
func NewRedisSolutionCacheFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisSolutionCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("solution cache: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("solution cache: ping redis: %w", err)
	}
	return NewRedisSolutionCache(rdb, ttl), nil
}

func Key(k ports.SolveKey) string {
	return keyPrefix + strings.Join([]string{k.Instance, k.Algorithm, k.Strategy, k.Boundary}, ":")
}

func (c *RedisSolutionCache) Get(ctx context.Context, key ports.SolveKey) (_ ports.CachedSolve, _ bool, err error) {
	defer obs.Time(ctx, "solution.cache.Get")(&err)

	var v ports.CachedSolve
	data, err := c.rdb.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("get solution cache: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("get solution cache: decode %s: %w", Key(key), err)
	}
	return v, true, nil
}

func (c *RedisSolutionCache) Put(ctx context.Context, key ports.SolveKey, v ports.CachedSolve) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("put solution cache: encode: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("put solution cache: %w", err)
	}
	return nil
}

func (c *RedisSolutionCache) Close() error { return c.rdb.Close() }
