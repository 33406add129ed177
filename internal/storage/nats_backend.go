package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSBackend implements Backend and Watcher on a NATS JetStream key/value
// bucket.
//
// Devices sharing one NATS deployment see each other's writes through Watch,
// which is the multi-host counterpart of the browser's cross-tab storage event.
type NATSBackend struct {
	// Bucket is the JetStream KV bucket name.
	Bucket string

	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSBackend connects to url and creates (or updates) the KV bucket.
func NewNATSBackend(ctx context.Context, url, bucket string) (*NATSBackend, error) {
	conn, err := nats.Connect(url, nats.Name("kencana-farm"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Kencana farm state",
		History:     1, // only the latest value matters
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open KV bucket %q: %w", bucket, err)
	}

	return &NATSBackend{Bucket: bucket, conn: conn, kv: kv}, nil
}

// Load returns the latest value stored under key.
func (b *NATSBackend) Load(ctx context.Context, key string) ([]byte, error) {
	entry, err := b.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, fmt.Errorf("load %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return entry.Value(), nil
}

// Save puts data under key.
func (b *NATSBackend) Save(ctx context.Context, key string, data []byte) error {
	if _, err := b.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (b *NATSBackend) Remove(ctx context.Context, key string) error {
	err := b.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close closes the NATS connection.
func (b *NATSBackend) Close() error {
	b.conn.Close()
	return nil
}

// Watch streams new revisions of key. Deletes and purges are reported with a
// nil value.
func (b *NATSBackend) Watch(ctx context.Context, key string) (<-chan Change, error) {
	w, err := b.kv.Watch(ctx, key, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to watch key %q: %w", key, err)
	}

	out := make(chan Change, watchBuffer)
	go func() {
		defer close(out)
		defer func() { _ = w.Stop() }()

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-w.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial replay
				if entry == nil {
					continue
				}

				change := Change{Key: key}
				switch entry.Operation() {
				case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
				default:
					change.Value = entry.Value()
				}

				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
