package cache

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"time"
)

// NullCacheValue marks a cached absence so repeated misses do not reach the
// backing store.
const NullCacheValue = "$NULL$"

// ReadThrough caches JSON encoded values of T in front of a slower store.
// Values reported empty by IsEmpty are remembered as NullCacheValue for
// EmptyTTL. Cache failures fall through to the loader.
type ReadThrough[T any] struct {
	Cache    Cache
	TTL      time.Duration
	EmptyTTL time.Duration
	IsEmpty  func(T) bool
}

// Get returns the cached value for key or loads, stores and returns it.
func (r ReadThrough[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if cached, err := r.Cache.Get(ctx, key); err == nil && cached != "" {
		if cached == NullCacheValue {
			return zero, nil
		}
		var v T
		if err := json.Unmarshal([]byte(cached), &v); err == nil {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if r.IsEmpty != nil && r.IsEmpty(v) {
		_ = r.Cache.Set(ctx, key, NullCacheValue, r.EmptyTTL)
		return zero, nil
	}
	if data, err := json.Marshal(v); err == nil {
		_ = r.Cache.Set(ctx, key, string(data), JitterTTL(r.TTL))
	}
	return v, nil
}

// Invalidate runs write and drops key once it succeeds.
func (r ReadThrough[T]) Invalidate(ctx context.Context, key string, write func(context.Context) error) error {
	if err := write(ctx); err != nil {
		return err
	}
	_ = r.Cache.Del(ctx, key)
	return nil
}

// JitterTTL shortens ttl by up to a tenth so related keys do not expire together.
func JitterTTL(ttl time.Duration) time.Duration {
	maxJitter := int64(ttl / 10)
	if ttl <= 0 || maxJitter <= 0 {
		return ttl
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter+1))
	if err != nil {
		return ttl
	}
	return ttl - time.Duration(n.Int64())
}
