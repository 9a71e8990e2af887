package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
)

// Cache stores opaque values by key. A miss is reported by ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes a cached value into dest. Any cache or decode failure is a miss.
func GetJSON(ctx context.Context, c Cache, key string, dest interface{}) bool {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		prometheus.RecordCacheLookup(false)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		prometheus.RecordCacheLookup(false)
		return false
	}
	prometheus.RecordCacheLookup(true)
	return true
}

// SetJSON encodes value and stores it
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
