package mq

import "context"

// FetchLimiter bounds how many fetched messages are in flight at once.
type FetchLimiter interface {
	Acquire(ctx context.Context) error
	Release()
}

// TokenLimiter admits up to size concurrent holders.
type TokenLimiter struct {
	held chan struct{}
}

func NewTokenLimiter(size int) *TokenLimiter {
	return &TokenLimiter{held: make(chan struct{}, max(size, 1))}
}

// Acquire blocks until a slot frees up or ctx ends.
func (l *TokenLimiter) Acquire(ctx context.Context) error {
	select {
	case l.held <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot. Extra calls are ignored.
func (l *TokenLimiter) Release() {
	select {
	case <-l.held:
	default:
	}
}
