package nyckel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Cache stores serialized lookup data (label and field name maps) between
// listing calls, so foreign-key resolution during sample reads does not
// re-fetch the full label list every time.
// Static errors for cache lookups.
var (
	ErrCacheMiss     = errors.New("key not found in cache")
	ErrCacheDisabled = errors.New("cache disabled")
)

type Cache interface {
	// Get returns the cached value, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value. A zero TTL means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// CacheType selects a cache backend.
type CacheType string

const (
	// CacheTypeMemory is an in-process cache with per-entry expiry.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS stores entries in a NATS JetStream key-value bucket,
	// shared between processes.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone disables caching.
	CacheTypeNone CacheType = "none"
)

// CacheConfig configures the lookup cache backend.
type CacheConfig struct {
	// Type is the backend type. Defaults to memory.
	Type CacheType

	// TTL is the default entry lifetime. Defaults to 30 seconds, which is
	// short enough that label renames show up promptly.
	TTL time.Duration

	// NATS configures the NATS backend. Required when Type is nats.
	NATS *NATSKVConfig
}

// DefaultCacheTTL is used when CacheConfig.TTL is zero.
const DefaultCacheTTL = 30 * time.Second

// NewCacheFromConfig creates a cache backend from configuration.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = &CacheConfig{Type: CacheTypeMemory}
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}

	switch config.Type {
	case CacheTypeMemory, CacheType(""):
		return NewMemoryCache(ttl), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS, ttl)

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// MemoryCache is a mutex-guarded in-process cache.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryCacheEntry
	defaultTTL time.Duration
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a memory cache with the given default TTL.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memoryCacheEntry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value, or ErrCacheMiss if absent or expired.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}

	if time.Now().After(entry.expiresAt) {
		_ = c.Delete(ctx, key)

		return nil, ErrCacheMiss
	}

	return entry.value, nil
}

// Set stores a value.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryCacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// NoOpCache is a cache that stores nothing.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}
