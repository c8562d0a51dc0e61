package ports

import "context"

// KVStore is a durable key-value byte store supplied by the host.
// The core treats values as opaque blobs.
//
//go:generate mockgen -source=kvstore.go -destination=mocks/mock_kvstore.go -package=mocks
type KVStore interface {
	// Get returns the value stored under key.
	// The boolean is false, with a nil error, when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}
