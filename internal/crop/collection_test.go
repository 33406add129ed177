package crop_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/storage"
	"github.com/JamesPrial/kencana-farm/internal/syncstate"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// sequentialIDs returns an id generator producing crop-1, crop-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("crop-%d", n)
	}
}

func openCollection(t *testing.T, store *syncstate.Store) *crop.Collection {
	t.Helper()
	c, err := crop.Open(context.Background(), store, crop.WithIDGenerator(sequentialIDs()))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newStore(t *testing.T) (*syncstate.Store, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })
	return syncstate.NewStore(backend), backend
}

// ---------------------------------------------------------------------------
// Add / Get / List
// ---------------------------------------------------------------------------

func Test_Collection_StartsEmpty(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)

	if got := c.List(); len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

func Test_Collection_AddAppendsWithFreshIDs(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)

	a := c.Add(crop.Crop{ID: "ignored", Name: "Alphonso Mango", PlantingDate: "2025-01-01"})
	b := c.Add(crop.Crop{Name: "Musang King Durian", PlantingDate: "2025-02-01"})

	if a.ID != "crop-1" || b.ID != "crop-2" {
		t.Errorf("ids = %q, %q, want crop-1, crop-2", a.ID, b.ID)
	}

	got := c.List()
	if len(got) != 2 || got[0].Name != "Alphonso Mango" || got[1].Name != "Musang King Durian" {
		t.Errorf("List() = %+v, want insertion order", got)
	}

	found, ok := c.Get("crop-2")
	if !ok || found.Name != "Musang King Durian" {
		t.Errorf("Get(crop-2) = %+v, %v", found, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported found")
	}
}

func Test_Collection_DefaultIDsAreUnique(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c, err := crop.Open(context.Background(), store)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := c.Add(crop.Crop{Name: "Papaya"}).ID
		if id == "" || seen[id] {
			t.Fatalf("Add() produced empty or duplicate id %q", id)
		}
		seen[id] = true
	}
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func Test_Collection_UpdateMergesInPlace(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)

	c.Add(crop.Crop{Name: "Apple"})
	c.Add(crop.Crop{Name: "Orange", Location: "Section B"})
	c.Add(crop.Crop{Name: "Banana"})

	if !c.Update("crop-2", crop.Patch{Notes: crop.StringPtr("pruned"), Health: crop.IntPtr(70)}) {
		t.Fatal("Update() of existing crop returned false")
	}

	got := c.List()
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	if diff := cmp.Diff([]string{"Apple", "Orange", "Banana"}, names); diff != "" {
		t.Errorf("order changed (-want +got):\n%s", diff)
	}
	if got[1].Notes != "pruned" || got[1].HealthOrDefault() != 70 || got[1].Location != "Section B" {
		t.Errorf("merged crop = %+v", got[1])
	}
}

func Test_Collection_MissingIDIsNoOp(t *testing.T) {
	t.Parallel()
	store, backend := newStore(t)
	c := openCollection(t, store)
	c.Add(crop.Crop{Name: "Avocado"})

	before, err := backend.Load(context.Background(), crop.StorageKey)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if c.Update("nope", crop.Patch{Name: crop.StringPtr("x")}) {
		t.Error("Update(missing) returned true")
	}
	if c.Delete("nope") {
		t.Error("Delete(missing) returned true")
	}
	if _, ok := c.AdvanceStage("nope"); ok {
		t.Error("AdvanceStage(missing) returned true")
	}
	if _, ok := c.Observe("nope", crop.Observation{Health: 1}); ok {
		t.Error("Observe(missing) returned true")
	}

	after, err := backend.Load(context.Background(), crop.StorageKey)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("stored collection changed:\nbefore %s\nafter  %s", before, after)
	}
}

func Test_Collection_Delete(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)
	c.Add(crop.Crop{Name: "Coconut"})
	c.Add(crop.Crop{Name: "Watermelon"})

	if !c.Delete("crop-1") {
		t.Fatal("Delete() returned false")
	}
	got := c.List()
	if len(got) != 1 || got[0].ID != "crop-2" {
		t.Errorf("List() after Delete = %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Stage advancement
// ---------------------------------------------------------------------------

func Test_Collection_AdvanceStageClampsAtReady(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)
	c.Add(crop.Crop{Name: "Orange"})

	want := []crop.Stage{crop.Growing, crop.Flowering, crop.Fruiting, crop.Ready, crop.Ready, crop.Ready}
	for i, w := range want {
		got, ok := c.AdvanceStage("crop-1")
		if !ok {
			t.Fatalf("AdvanceStage() #%d returned false", i+1)
		}
		if got.Stage() != w {
			t.Errorf("AdvanceStage() #%d stage = %v, want %v", i+1, got.Stage(), w)
		}
	}
}

func Test_Collection_AdvanceNeverLowersStoredStage(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)
	c.Replace([]crop.Crop{{ID: "legacy", Name: "Durian", StageIndex: crop.IntPtr(7)}})

	got, ok := c.AdvanceStage("legacy")
	if !ok {
		t.Fatal("AdvanceStage() returned false")
	}
	if *got.StageIndex != 7 {
		t.Errorf("AdvanceStage() stageIndex = %d, want 7 left in place", *got.StageIndex)
	}

	got, _ = c.Observe("legacy", crop.Observation{Health: 60})
	if *got.StageIndex != 7 || got.HealthOrDefault() != 60 {
		t.Errorf("Observe() = stageIndex %d health %d, want 7 and 60", *got.StageIndex, got.HealthOrDefault())
	}
}

func Test_Collection_Observe(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)
	c.Add(crop.Crop{Name: "Mango", Photos: []string{"old"}, StageIndex: crop.IntPtr(1)})

	got, ok := c.Observe("crop-1", crop.Observation{Health: 72, Photo: "new"})
	if !ok {
		t.Fatal("Observe() returned false")
	}
	if got.Stage() != crop.Flowering || got.HealthOrDefault() != 72 {
		t.Errorf("Observe() = stage %v health %d", got.Stage(), got.HealthOrDefault())
	}
	if diff := cmp.Diff([]string{"old", "new"}, got.Photos); diff != "" {
		t.Errorf("photos mismatch (-want +got):\n%s", diff)
	}

	got, _ = c.Observe("crop-1", crop.Observation{Health: 90})
	if len(got.Photos) != 2 {
		t.Errorf("empty photo was appended: %v", got.Photos)
	}
}

// ---------------------------------------------------------------------------
// Persistence and synchronization
// ---------------------------------------------------------------------------

func Test_Collection_RoundTrip(t *testing.T) {
	t.Parallel()
	backend := storage.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	writer := openCollection(t, syncstate.NewStore(backend))
	writer.Add(crop.Crop{
		Name:                  "Harumanis Mango",
		Variety:               "Harumanis",
		PlantingDate:          "2025-03-15",
		ExpectedDaysToHarvest: crop.IntPtr(110),
		Photos:                []string{"data:image/jpeg;base64,/9j/"},
		StageIndex:            crop.IntPtr(2),
		Health:                crop.IntPtr(91),
		ConfidenceLevel:       crop.IntPtr(80),
	})

	reader := openCollection(t, syncstate.NewStore(backend))
	if diff := cmp.Diff(writer.List(), reader.List()); diff != "" {
		t.Errorf("round trip mismatch (-writer +reader):\n%s", diff)
	}
}

func Test_Collection_SharedStoreConverges(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	a := openCollection(t, store)
	b := openCollection(t, store)

	var mu sync.Mutex
	var notified []crop.Crop
	cancel := b.Subscribe(func(crops []crop.Crop) {
		mu.Lock()
		defer mu.Unlock()
		notified = crops
	})
	defer cancel()

	a.Add(crop.Crop{Name: "Durian"})

	if got := b.List(); len(got) != 1 || got[0].Name != "Durian" {
		t.Errorf("b.List() = %+v", got)
	}
	// the notification may come from the storage watch goroutine
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(notified)
		mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber saw %d crops, want 1", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func Test_Collection_Replace(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)
	c.Add(crop.Crop{Name: "Apple"})

	imported := []crop.Crop{{ID: "x1", Name: "Papaya"}, {ID: "x2", Name: "Banana"}}
	c.Replace(imported)
	if diff := cmp.Diff(imported, c.List()); diff != "" {
		t.Errorf("Replace() mismatch (-want +got):\n%s", diff)
	}

	c.Replace(nil)
	if got := c.List(); got == nil || len(got) != 0 {
		t.Errorf("Replace(nil) = %#v, want empty non-nil", got)
	}
}

func Test_Collection_ListIsACopy(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)
	c := openCollection(t, store)
	c.Add(crop.Crop{Name: "Apple", Photos: []string{"p"}})

	got := c.List()
	got[0].Name = "changed"
	got[0].Photos[0] = "changed"

	again := c.List()
	if again[0].Name != "Apple" || again[0].Photos[0] != "p" {
		t.Errorf("collection mutated through List(): %+v", again[0])
	}
}
