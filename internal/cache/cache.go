package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a best-effort byte cache. Misses and backend failures look the
// same to callers: they fall through to the database.
//
// Generation counters never expire. Readers fold the current generation
// into their data keys and writers Bump it, so a fill that raced a write
// lands under a key nobody reads any more.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	Delete(ctx context.Context, keys ...string)

	// Generation reports the counter under key (0 when unset); ok is false
	// when the backend could not answer.
	Generation(ctx context.Context, key string) (gen int64, ok bool)
	// Bump increments the counter under key and returns the new value.
	Bump(ctx context.Context, key string) (int64, error)
}

// Cache is the in-process Store used when no Redis is configured.
type Cache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	m    map[string]entry
	gens map[string]int64
}
type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:  ttl,
		m:    make(map[string]entry),
		gens: make(map[string]int64),
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(_ context.Context, key string, val []byte) {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.m, key)
	}
	c.mu.Unlock()
}

func (c *Cache) Generation(_ context.Context, key string) (int64, bool) {
	c.mu.RLock()
	gen := c.gens[key]
	c.mu.RUnlock()
	return gen, true
}

func (c *Cache) Bump(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	c.gens[key]++
	gen := c.gens[key]
	c.mu.Unlock()
	return gen, nil
}

// Clear drops cached values; generations survive so older fills stay unreachable.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
