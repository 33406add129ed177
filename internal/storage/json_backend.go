package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// JSONBackend implements Backend and Watcher using a single JSON file.
//
// The file holds one JSON object mapping each storage key to its stored
// value. Writes replace the whole file atomically so readers in other
// processes never observe a partial document.
type JSONBackend struct {
	// Path is the absolute path to the JSON document.
	Path string

	mu sync.Mutex
}

// NewJSONBackend creates a new JSONBackend for the given file path.
//
// Parent directories are created on the first Save.
func NewJSONBackend(path string) *JSONBackend {
	return &JSONBackend{Path: path}
}

// Load returns the value stored under key, compacted.
//
// A missing, unreadable or corrupted document reads as empty, so every key
// is reported as ErrNotFound and the caller falls back to its default.
func (b *JSONBackend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	doc := b.readDocument()
	b.mu.Unlock()

	raw, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("load %q: %w", key, ErrNotFound)
	}
	return compact(raw), nil
}

// Save stores data under key and atomically rewrites the document.
//
// data must be valid JSON. Writes JSON with 2-space indentation and a
// trailing newline.
func (b *JSONBackend) Save(_ context.Context, key string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("save %q: value is not valid JSON", key)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	doc := b.readDocument()
	doc[key] = json.RawMessage(bytes.Clone(data))
	return b.writeDocument(doc)
}

// Remove deletes key from the document. Removing an absent key does not
// touch the file.
func (b *JSONBackend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := b.readDocument()
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return b.writeDocument(doc)
}

// Close is a no-op; the backend holds no open handles between calls.
func (b *JSONBackend) Close() error {
	return nil
}

// Watch reports changes to key made by any writer of the file, including
// other processes.
//
// The parent directory is watched rather than the file itself because each
// Save replaces the file through a rename, which would drop a watch placed
// on the old inode.
func (b *JSONBackend) Watch(ctx context.Context, key string) (<-chan Change, error) {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	last, _ := b.Load(ctx, key)
	out := make(chan Change, watchBuffer)
	name := filepath.Base(b.Path)

	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}

				current, err := b.Load(ctx, key)
				if err != nil && !errors.Is(err, ErrNotFound) {
					continue
				}
				if bytes.Equal(current, last) {
					continue
				}
				last = current

				select {
				case out <- Change{Key: key, Value: current}:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

// readDocument loads the whole document, treating any failure as empty.
// Must be called with b.mu held.
func (b *JSONBackend) readDocument() map[string]json.RawMessage {
	doc := make(map[string]json.RawMessage)

	data, err := os.ReadFile(b.Path)
	if err != nil {
		return doc
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(data, &parsed); err != nil || parsed == nil {
		return doc
	}
	return parsed
}

// writeDocument atomically replaces the file with doc.
// Must be called with b.mu held.
func (b *JSONBackend) writeDocument(doc map[string]json.RawMessage) error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	// Temp file in the same directory so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(dir, ".kencana-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return closeErr
	}

	if err := os.Rename(tmpPath, b.Path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// compact returns raw with insignificant whitespace removed, or raw itself
// if it cannot be compacted.
func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return bytes.Clone(raw)
	}
	return buf.Bytes()
}
