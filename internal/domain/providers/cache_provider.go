package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider is a byte-valued key store used to memoise ontology lookups. Keys are
// opaque to the store; callers namespace them.
type CacheProvider interface {
	// Get returns a copy of the stored value or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl. A non-positive ttl keeps the entry until it is evicted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete drops an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
