package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"sharify/internal/observability"
	"sharify/internal/querykeys"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var group singleflight.Group

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first. On a miss it runs fetch, which must populate dest,
// and stores the result. Concurrent misses on the same key share one fetch.
// Redis failures never fail the read.
func Aside[T any](ctx context.Context, k querykeys.Key, dest *T, fetch func(ctx context.Context) (T, error)) error {
	key := Key(k)
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		observability.Logger.WarnContext(ctx, "cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		observability.CacheLookups.WithLabelValues(string(k.Family), "hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues(string(k.Family), "miss").Inc()

	v, err, _ := group.Do(key, func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := SetJSON(ctx, key, val, TTL(k.Family)); err != nil {
			observability.Logger.WarnContext(ctx, "cache write failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
		return val, nil
	})
	if err != nil {
		return err
	}
	*dest = v.(T)
	return nil
}

// Invalidate drops one exact key.
func Invalidate(ctx context.Context, k querykeys.Key) {
	if client == nil {
		return
	}
	client.Del(ctx, Key(k))
}

// InvalidateChanges drops every cached read the changes affect according to
// the default dependency graph. Whole families are removed with SCAN.
func InvalidateChanges(ctx context.Context, changes ...querykeys.Change) {
	if client == nil {
		return
	}
	for _, k := range querykeys.Default.Affected(changes...) {
		observability.CacheInvalidations.WithLabelValues(string(k.Family)).Inc()
		if !k.Whole() {
			client.Del(ctx, Key(k))
			continue
		}
		client.Del(ctx, Key(k))
		if err := deletePattern(ctx, Key(k)+":*"); err != nil {
			observability.Logger.WarnContext(ctx, "cache invalidation failed",
				slog.String("family", string(k.Family)), slog.String("error", err.Error()))
		}
	}
}

func deletePattern(ctx context.Context, pattern string) error {
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return client.Del(ctx, batch...).Err()
	}
	return nil
}
