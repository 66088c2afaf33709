// Package storage is the durable key/value primitive behind the cart. A
// Storage is scoped to one browsing context and behaves like the browser's
// local storage: string keys, string values, synchronous calls.
package storage

import (
	"context"
	"errors"
)

// Storage is one browsing context's key/value area.
type Storage interface {
	// GetItem returns ok=false for a missing key. err is reserved for
	// backend failures.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Factory opens the storage scope of a browsing context.
type Factory func(contextID string) Storage

// ErrQuotaExceeded is returned by SetItem when the write would exceed the
// scope's byte quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")
