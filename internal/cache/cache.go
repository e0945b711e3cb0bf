// Package cache is the key-value TTL store behind the quiz catalog cache,
// auto-save snapshots and import status records.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = stderrors.New("cache: miss")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites key. A ttl of zero keeps the entry until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// InvalidateByPrefix removes every key starting with prefix.
	InvalidateByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// GetJSON reads key into a T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var v T
	raw, err := s.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return v, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}
