package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// watchBuffer is the channel capacity for each watcher. When a watcher falls
// behind, its oldest pending change is discarded so the latest one always
// gets through.
const watchBuffer = 16

// MemoryBackend implements Backend and Watcher entirely in memory.
//
// Several state stores sharing one MemoryBackend behave like several browser
// tabs sharing one localStorage: a Save through any of them is reported to
// every watcher of the key.
type MemoryBackend struct {
	mu       sync.Mutex
	values   map[string][]byte
	watchers map[string]map[chan Change]struct{}
	closed   bool
	done     chan struct{}
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values:   make(map[string][]byte),
		watchers: make(map[string]map[chan Change]struct{}),
		done:     make(chan struct{}),
	}
}

// Load returns a copy of the value stored under key.
func (b *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.values[key]
	if !ok {
		return nil, fmt.Errorf("load %q: %w", key, ErrNotFound)
	}
	return bytes.Clone(data), nil
}

// Save stores a copy of data under key and notifies watchers.
func (b *MemoryBackend) Save(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("save %q: backend closed", key)
	}
	b.values[key] = bytes.Clone(data)
	b.broadcast(Change{Key: key, Value: bytes.Clone(data)})
	return nil
}

// Remove deletes key and notifies watchers with a nil value.
func (b *MemoryBackend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.values[key]; !ok {
		return nil
	}
	delete(b.values, key)
	b.broadcast(Change{Key: key})
	return nil
}

// Watch streams changes to key until ctx is done or the backend is closed.
func (b *MemoryBackend) Watch(ctx context.Context, key string) (<-chan Change, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("watch %q: backend closed", key)
	}

	ch := make(chan Change, watchBuffer)
	if b.watchers[key] == nil {
		b.watchers[key] = make(map[chan Change]struct{})
	}
	b.watchers[key][ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.watchers[key][ch]; ok {
			delete(b.watchers[key], ch)
			close(ch)
		}
	}()

	return ch, nil
}

// Close closes every open watch channel. Stored values are discarded.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	for key, set := range b.watchers {
		for ch := range set {
			close(ch)
		}
		delete(b.watchers, key)
	}
	b.values = make(map[string][]byte)
	return nil
}

// broadcast must be called with b.mu held.
func (b *MemoryBackend) broadcast(c Change) {
	for ch := range b.watchers[c.Key] {
		select {
		case ch <- c:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}
