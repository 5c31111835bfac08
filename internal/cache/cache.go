// Package cache memoizes generated replies so repeated activities do not
// hit the language model again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/carbontally/internal/model"
)

// keyPrefix namespaces keys; bump the version when the reply format changes
const keyPrefix = "carbontally:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey hashes parts into a namespaced key. Parts are joined with a
// separator that cannot appear in activity keys, so ("a", "bc") and
// ("ab", "c") never collide.
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg. A disabled cache stores nothing.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NopCache{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, cleanupInterval(cfg.MemoryTTL))
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// NopCache never holds anything
type NopCache struct{}

// Get always misses
func (NopCache) Get(string) ([]byte, bool) { return nil, false }

// Set discards the value
func (NopCache) Set(string, []byte, time.Duration) error { return nil }

// Delete is a no-op
func (NopCache) Delete(string) error { return nil }

// Clear is a no-op
func (NopCache) Clear() error { return nil }

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 10*time.Minute {
		return 10 * time.Minute
	}
	return ttl
}
