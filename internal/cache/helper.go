package cache

import (
	"context"
	"encoding/json"
	"time"
)

// CacheAside implements the cache-aside pattern: return the cached value for
// key if present, otherwise call fetch, store its result under key with the
// given TTL, and return it. Cache failures are never surfaced; a missing or
// unreachable Redis degrades to calling fetch directly.
func CacheAside[T any](ctx context.Context, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if client != nil {
		if raw, err := client.Get(ctx, key).Result(); err == nil {
			var cached T
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
			// Corrupt entry, drop it and fall through to fetch.
			client.Del(ctx, key)
		}
	}

	value, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	if client != nil {
		if raw, jsonErr := json.Marshal(value); jsonErr == nil {
			client.Set(ctx, key, raw, ttl)
		}
	}

	return value, nil
}
