package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/notefhir/internal/domain/providers"
)

const defaultLRUSize = 1024

type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e lruEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LRUAdapter is an in-process CacheProvider bounded by entry count. Expired entries are
// dropped lazily on access.
type LRUAdapter struct {
	cache *lru.Cache[string, lruEntry]
	now   func() time.Time
}

// NewLRUAdapter creates an in-process cache holding at most size entries.
func NewLRUAdapter(size int) (*LRUAdapter, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUAdapter{cache: c, now: time.Now}, nil
}

var _ providers.CacheProvider = (*LRUAdapter)(nil)

// Get retrieves a value from cache
func (a *LRUAdapter) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := a.cache.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if entry.expired(a.now()) {
		a.cache.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a value. A non-positive ttl keeps the entry until evicted.
func (a *LRUAdapter) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := lruEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = a.now().Add(ttl)
	}
	a.cache.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *LRUAdapter) Delete(_ context.Context, key string) error {
	a.cache.Remove(key)
	return nil
}

// Len reports the number of entries, including expired ones not yet dropped.
func (a *LRUAdapter) Len() int {
	return a.cache.Len()
}
