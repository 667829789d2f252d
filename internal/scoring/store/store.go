// Package store defines the two-tier key-value capability the handlers
// depend on: a persistent tier whose failures the caller must see, and a
// cache tier that never fails outward. Retry policy belongs to the
// implementation, not to callers.
package store

import (
	"context"
	"time"
)

// Store is the opaque storage collaborator.
//
// Persistent tier: Get returns (nil, nil) for a missing key and a
// sentinel.ErrUnavailable-wrapped error on a connectivity failure. Set and
// Delete exist for provisioning and tests; the handlers never write the
// persistent tier.
//
// Cache tier: GetCache returns nil on a miss or any failure; SetCache is
// best effort and failures are silently dropped.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	GetCache(ctx context.Context, key string) []byte
	SetCache(ctx context.Context, key string, value []byte, ttl time.Duration)
}
