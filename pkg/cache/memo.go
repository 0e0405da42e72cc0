package cache

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/deprank/pkg/observability"
)

// Memo memoizes computations in a [Cache].
//
// A Memo is safe for concurrent use. Concurrent calls to [Do] for the same
// scope and key run the computation once and share its result.
type Memo struct {
	cache Cache
	group singleflight.Group
}

// NewMemo creates a Memo backed by c. A nil c disables caching.
func NewMemo(c Cache) *Memo {
	if c == nil {
		c = NewNullCache()
	}
	return &Memo{cache: c}
}

// Cache returns the backing store.
func (m *Memo) Cache() Cache { return m.cache }

// Do returns the cached value for key in scope, or runs fn and caches its
// result for scope.TTL. The boolean reports whether the value came from the
// cache.
//
// Values round-trip through encoding/json, so T must be JSON-serializable.
// A non-nil error from fn is returned as-is and nothing is cached. Backend
// failures are treated as misses and never surface to the caller.
func Do[T any](ctx context.Context, m *Memo, scope Scope, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	k := scope.Key(key)
	hooks := observability.Cache()

	if data, ok, err := m.cache.Get(ctx, k); err == nil && ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			hooks.OnCacheHit(ctx, scope.Name)
			return v, true, nil
		}
	}
	hooks.OnCacheMiss(ctx, scope.Name)

	res, err, _ := m.group.Do(k, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return v, err
		}
		if data, err := json.Marshal(v); err == nil {
			if err := m.cache.Set(ctx, k, data, scope.TTL); err == nil {
				hooks.OnCacheSet(ctx, scope.Name, len(data))
			}
		}
		return v, nil
	})
	v, _ := res.(T)
	return v, false, err
}
