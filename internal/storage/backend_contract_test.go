package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JamesPrial/kencana-farm/internal/storage"
)

// watchTimeout bounds how long a test waits for a change notification.
const watchTimeout = 5 * time.Second

// jsonEqual reports whether a and b hold the same JSON value, ignoring
// formatting and object key order.
func jsonEqual(t *testing.T, a, b []byte) bool {
	t.Helper()
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		t.Fatalf("unmarshal %q: %v", a, err)
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		t.Fatalf("unmarshal %q: %v", b, err)
	}
	return cmp.Equal(va, vb)
}

// runBackendContract exercises the behavior every Backend must share.
func runBackendContract(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := b.Load(ctx, "absent_key")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("save then load", func(t *testing.T) {
		value := []byte(`[{"id":1,"title":"Water Apple Trees","completed":false}]`)
		if err := b.Save(ctx, "kencana_tasks_v1", value); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		got, err := b.Load(ctx, "kencana_tasks_v1")
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if !jsonEqual(t, got, value) {
			t.Errorf("Load() = %s, want %s", got, value)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if err := b.Save(ctx, "overwrite_key", []byte(`{"v":1}`)); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		if err := b.Save(ctx, "overwrite_key", []byte(`{"v":2}`)); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		got, err := b.Load(ctx, "overwrite_key")
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if !jsonEqual(t, got, []byte(`{"v":2}`)) {
			t.Errorf("Load() = %s, want {\"v\":2}", got)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		if err := b.Save(ctx, "key_a", []byte(`"a"`)); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		if err := b.Save(ctx, "key_b", []byte(`"b"`)); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		got, err := b.Load(ctx, "key_a")
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if !jsonEqual(t, got, []byte(`"a"`)) {
			t.Errorf("Load(key_a) = %s, want \"a\"", got)
		}
	})

	t.Run("unicode survives", func(t *testing.T) {
		value := []byte(`{"name":"Durian Musang King 🍈","location":"Kebun Timur"}`)
		if err := b.Save(ctx, "unicode_key", value); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		got, err := b.Load(ctx, "unicode_key")
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if !jsonEqual(t, got, value) {
			t.Errorf("Load() = %s, want %s", got, value)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := b.Save(ctx, "remove_key", []byte(`true`)); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		if err := b.Remove(ctx, "remove_key"); err != nil {
			t.Fatalf("Remove() unexpected error: %v", err)
		}
		if _, err := b.Load(ctx, "remove_key"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Load() after Remove error = %v, want ErrNotFound", err)
		}
		if err := b.Remove(ctx, "remove_key"); err != nil {
			t.Errorf("Remove() of absent key unexpected error: %v", err)
		}
	})
}

// runWatchContract checks that a write through writer reaches a watcher on w.
func runWatchContract(t *testing.T, w storage.Watcher, writer storage.Backend) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := w.Watch(ctx, "watched_key")
	if err != nil {
		t.Fatalf("Watch() unexpected error: %v", err)
	}

	if err := writer.Save(ctx, "unwatched_key", []byte(`1`)); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if err := writer.Save(ctx, "watched_key", []byte(`{"stage":2}`)); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	c := nextChange(t, changes)
	if c.Key != "watched_key" {
		t.Errorf("Change.Key = %q, want watched_key", c.Key)
	}
	if !jsonEqual(t, c.Value, []byte(`{"stage":2}`)) {
		t.Errorf("Change.Value = %s, want {\"stage\":2}", c.Value)
	}

	if err := writer.Remove(ctx, "watched_key"); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if c := nextChange(t, changes); c.Value != nil {
		t.Errorf("Change.Value after Remove = %s, want nil", c.Value)
	}

	cancel()
	deadline := time.After(watchTimeout)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed after cancel")
		}
	}
}

func nextChange(t *testing.T, changes <-chan storage.Change) storage.Change {
	t.Helper()
	select {
	case c, ok := <-changes:
		if !ok {
			t.Fatal("watch channel closed unexpectedly")
		}
		return c
	case <-time.After(watchTimeout):
		t.Fatal("timed out waiting for change")
	}
	return storage.Change{}
}
