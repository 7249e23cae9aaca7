package qrcode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered images keyed by payload hash and size.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, png []byte) error
}

// CacheKey derives the cache key for a payload rendered at size pixels.
func CacheKey(payload string, size int) string {
	sum := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("qr:png:%s:%d", hex.EncodeToString(sum[:]), size)
}

// RedisCache keeps rendered images in Redis with a TTL.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisCache creates a Redis-backed render cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

// Get returns the cached image, reporting a miss when the key is absent.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("qrcode: cache get: %w", err)
	}
	return data, true, nil
}

// Set stores png under key.
func (c *RedisCache) Set(ctx context.Context, key string, png []byte) error {
	if err := c.redis.Set(ctx, key, png, c.ttl).Err(); err != nil {
		return fmt.Errorf("qrcode: cache set: %w", err)
	}
	return nil
}

type memoryEntry struct {
	png     []byte
	expires time.Time
}

// MemoryCache is an in-process render cache bounded by entry count.
// When full, expired entries are evicted first, then the oldest entry.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates an in-memory cache. A non-positive ttl disables
// expiry; maxEntries defaults to 256.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns a live entry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.expired(e) {
		c.remove(key)
		return nil, false, nil
	}
	return e.png, true, nil
}

// Set stores png, evicting when the cache is full.
func (c *MemoryCache) Set(_ context.Context, key string, png []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{png: png}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		return nil
	}

	if len(c.entries) >= c.maxEntries {
		c.evict()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}

func (c *MemoryCache) evict() {
	live := c.order[:0]
	for _, key := range c.order {
		if c.expired(c.entries[key]) {
			delete(c.entries, key)
			continue
		}
		live = append(live, key)
	}
	c.order = live
	if len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		c.remove(c.order[0])
	}
}

func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
