// Package storage provides the durable, per-device key/value persistence used
// by the farm state store.
//
// Each backend stores opaque serialized values (JSON documents) under string
// keys, mirroring the browser localStorage layout the data format comes from:
// one key holds the whole crop collection, another the whole task collection.
// Backends that can detect changes made by other processes additionally
// implement Watcher.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Load when no value is stored under a key.
var ErrNotFound = errors.New("storage: key not found")

// Backend defines the contract for durable key/value persistence.
//
// Values are raw serialized bytes; backends never interpret them beyond what
// their storage engine requires (PostgreSQL stores them as JSONB, so values
// must be valid JSON there).
type Backend interface {
	// Load returns the value stored under key.
	//
	// Returns ErrNotFound (possibly wrapped) when the key is absent.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores data under key, replacing any previous value.
	//
	// Implementations must make the replacement atomic: a concurrent reader
	// observes either the old or the new value, never a partial write.
	Save(ctx context.Context, key string, data []byte) error

	// Remove deletes the value stored under key. Removing an absent key is
	// not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Change describes a value that changed in durable storage.
type Change struct {
	// Key is the storage key that changed.
	Key string

	// Value is the new serialized value, or nil when the key was removed.
	Value []byte
}

// Watcher is implemented by backends that can report changes made by other
// writers (other processes, other hosts, or other backend instances sharing
// the same underlying storage).
type Watcher interface {
	// Watch streams changes to key until ctx is done, at which point the
	// returned channel is closed.
	//
	// Changes made through the watching instance itself may be echoed back;
	// consumers are expected to ignore values they already hold.
	Watch(ctx context.Context, key string) (<-chan Change, error)
}
