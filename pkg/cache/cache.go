// Package cache provides time-bound storage for resolved identifiers,
// scraped metrics and whole aggregation results.
//
// # Backends
//
// All backends implement [Cache], a byte-oriented key/value store where each
// entry carries its own time-to-live:
//
//   - [MemoryCache]: process-wide, bounded LRU with per-entry expiry (default)
//   - [FileCache]: one JSON file per entry, survives CLI invocations
//   - [RedisCache]: shared between processes, expiry handled by Redis
//   - [NullCache]: never stores anything
//
// # Scopes
//
// A [Scope] names a family of entries and fixes their TTL. Keys are derived
// as "<scope>:<sha256(key)>", so entries written by different callers can
// never collide and arbitrary input text is a safe key for every backend.
//
// # Memoization
//
// [Do] wraps a computation with a [Memo]: on a hit the cached value is
// decoded and returned, on a miss or expiry the computation runs and its
// result overwrites the entry with a fresh expiry. Concurrent fills of the
// same key are collapsed into one computation.
//
// There is no invalidation API; entries disappear only when their TTL runs out.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with per-entry expiration.
//
// Get reports a miss (false, nil) for absent and expired entries alike.
// A ttl of 0 passed to Set means the entry never expires.
//
// Implementations must be safe for concurrent use; reads and writes of a
// single key are atomic and the last writer wins.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clock returns the current time. Backends that track expiry themselves use
// it so tests can move time forward deterministically.
type Clock func() time.Time

// Scope groups cache entries written by one caller under a shared TTL.
type Scope struct {
	Name string
	TTL  time.Duration
}

// Key derives the backend key for key within the scope.
func (s Scope) Key(key string) string {
	return s.Name + ":" + Hash([]byte(key))
}

// Option configures a backend constructor.
type Option func(*options)

type options struct {
	clock    Clock
	capacity int
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithCapacity bounds the number of entries a [MemoryCache] holds.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// DefaultCapacity is the entry limit of a MemoryCache created without [WithCapacity].
const DefaultCapacity = 4096

func buildOptions(opts []Option) options {
	o := options{clock: time.Now, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
