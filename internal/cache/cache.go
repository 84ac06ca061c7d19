package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Close releases the cache's background goroutines
	Close()
}

// Config sizes a RistrettoCache. MaxItems bounds the number of entries,
// each of which is stored with cost 1.
type Config struct {
	MaxItems int64
	TTL      time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxItems: 10_000,
		TTL:      5 * time.Minute,
	}
}

// RistrettoCache is a typed, TTL-bounded Cache backed by ristretto.
type RistrettoCache[T any] struct {
	store *ristretto.Cache
	ttl   time.Duration
}

var _ Cache[int] = (*RistrettoCache[int])(nil)

// NewRistrettoCache creates a cache holding at most cfg.MaxItems values
func NewRistrettoCache[T any](cfg Config) (*RistrettoCache[T], error) {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultConfig().MaxItems
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        cfg.MaxItems * 10,
		MaxCost:            cfg.MaxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &RistrettoCache[T]{store: store, ttl: cfg.TTL}, nil
}

func (c *RistrettoCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	data, ok := v.(T)
	if !ok {
		return zero, false
	}
	return data, true
}

// Set stores data and waits for the write buffer to drain, so a Get that
// follows observes the value.
func (c *RistrettoCache[T]) Set(key string, data T) {
	c.store.SetWithTTL(key, data, 1, c.ttl)
	c.store.Wait()
}

func (c *RistrettoCache[T]) Delete(key string) {
	c.store.Del(key)
}

func (c *RistrettoCache[T]) Close() {
	c.store.Close()
}
