package cache

import (
	"context"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// TryLock sets key only if absent; ok reports whether the lock was taken.
	TryLock(ctx context.Context, key string, ttl time.Duration) (ok bool, err error)
	Unlock(ctx context.Context, key string) error
	Close() error
}
