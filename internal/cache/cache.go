// Package cache provides the result cache behind the analysis and
// prediction pipeline. Redis backs it when configured; an in-process
// memory cache is the fallback so the API keeps working without Redis.
package cache

import (
	"context"
	"time"
)

// Cache is the backend-agnostic cache contract. Values are opaque
// bytes; callers handle serialization.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Stats returns hit and miss counters.
	Stats() Stats
	// Close releases backend resources.
	Close() error
}

// Stats holds cache effectiveness counters.
type Stats struct {
	Backend string  `json:"backend"`
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Ratio   float64 `json:"hit_ratio"`
}

func hitRatio(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
