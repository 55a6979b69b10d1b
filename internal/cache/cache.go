// Package cache stores upstream responses for a bounded time, in memory or in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// CoordKey buckets a coordinate to about 11 m so nearby clicks share an entry.
func CoordKey(prefix string, lat, lng float64) string {
	return fmt.Sprintf("%s:%.4f,%.4f", prefix, lat, lng)
}

// GetOrLoad returns the cached value for key, or calls load and stores its result.
// Cache errors are logged and never fail the call; load errors are returned and not cached.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if c == nil || ttl <= 0 {
		v, err := load(ctx)
		return v, false, err
	}

	if raw, ok, err := c.Get(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache: get failed")
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, true, nil
		}
		logrus.WithField("key", key).Warn("cache: dropping undecodable entry")
	}

	v, err := load(ctx)
	if err != nil {
		return zero, false, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := c.Set(ctx, key, raw, ttl); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("cache: set failed")
		}
	}
	return v, false, nil
}
