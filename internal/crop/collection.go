package crop

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/JamesPrial/kencana-farm/internal/syncstate"
)

// StorageKey is the key holding the crop collection.
const StorageKey = "kencana_crops_v1"

// Collection is the ordered set of crops persisted under StorageKey.
//
// Lookups by an unknown id are no-ops reported through the boolean results;
// no operation returns an error.
type Collection struct {
	value *syncstate.Value[[]Crop]
	newID func() string
}

// Option configures a Collection.
type Option func(*Collection)

// WithIDGenerator replaces the uuid generator used by Add.
func WithIDGenerator(fn func() string) Option {
	return func(c *Collection) { c.newID = fn }
}

// Open loads the crop collection from store. An absent or unreadable stored
// collection starts empty.
func Open(ctx context.Context, store *syncstate.Store, opts ...Option) (*Collection, error) {
	value, err := syncstate.Open(ctx, store, StorageKey, []Crop{})
	if err != nil {
		return nil, fmt.Errorf("failed to open crop collection: %w", err)
	}

	c := &Collection{value: value, newID: uuid.NewString}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns the crops in insertion order.
func (c *Collection) List() []Crop {
	return cloneAll(c.value.Get())
}

// Get returns the crop with id.
func (c *Collection) Get(id string) (Crop, bool) {
	for _, cr := range c.value.Get() {
		if cr.ID == id {
			return cr.clone(), true
		}
	}
	return Crop{}, false
}

// Add assigns crop a fresh id, appends it and returns the stored crop. Any
// id already set on crop is replaced.
func (c *Collection) Add(crop Crop) Crop {
	added := crop.clone()
	added.ID = c.newID()
	c.value.Update(func(prev []Crop) []Crop {
		next := make([]Crop, 0, len(prev)+1)
		next = append(next, prev...)
		return append(next, added)
	})
	return added.clone()
}

// Update merges p into the crop with id without moving it.
func (c *Collection) Update(id string, p Patch) bool {
	_, ok := c.modify(id, p.Apply)
	return ok
}

// Delete removes the crop with id.
func (c *Collection) Delete(id string) bool {
	_, changed := c.value.Modify(func(prev []Crop) ([]Crop, bool) {
		i := indexOf(prev, id)
		if i < 0 {
			return prev, false
		}
		return slices.Delete(slices.Clone(prev), i, i+1), true
	})
	return changed
}

// AdvanceStage moves the crop with id one stage forward, stopping at Ready.
func (c *Collection) AdvanceStage(id string) (Crop, bool) {
	return c.modify(id, func(cr Crop) Crop {
		cr = cr.clone()
		advance(&cr)
		return cr
	})
}

// advance moves cr one stage forward. A stored index at or past Ready is
// left as is so the index never decreases.
func advance(cr *Crop) {
	if cr.StageIndex != nil && *cr.StageIndex >= int(Ready) {
		return
	}
	cr.StageIndex = IntPtr(int(cr.Stage().Next()))
}

// Observe records a growth check on the crop with id in a single write:
// the stage advances as in AdvanceStage, the health is replaced and the
// photo (when non-empty) is appended.
func (c *Collection) Observe(id string, obs Observation) (Crop, bool) {
	return c.modify(id, func(cr Crop) Crop {
		cr = cr.clone()
		advance(&cr)
		cr.Health = IntPtr(obs.Health)
		if obs.Photo != "" {
			cr.Photos = append(cr.Photos, obs.Photo)
		}
		return cr
	})
}

// Replace overwrites the whole collection, as when importing a snapshot.
func (c *Collection) Replace(crops []Crop) {
	next := cloneAll(crops)
	if next == nil {
		next = []Crop{}
	}
	c.value.Set(next)
}

// Subscribe calls fn with the collection after every change, including
// changes made by other consumers of the same storage.
func (c *Collection) Subscribe(fn func([]Crop)) (cancel func()) {
	return c.value.Subscribe(func(crops []Crop) { fn(cloneAll(crops)) })
}

// Close stops synchronization.
func (c *Collection) Close() error {
	return c.value.Close()
}

// modify replaces the crop with id by fn(crop), skipping the write when the
// crop is missing or unchanged.
func (c *Collection) modify(id string, fn func(Crop) Crop) (Crop, bool) {
	var result Crop
	found := false
	c.value.Modify(func(prev []Crop) ([]Crop, bool) {
		i := indexOf(prev, id)
		if i < 0 {
			return prev, false
		}
		found = true
		updated := fn(prev[i])
		result = updated
		if equal(prev[i], updated) {
			return prev, false
		}
		next := slices.Clone(prev)
		next[i] = updated
		return next, true
	})
	return result.clone(), found
}

func indexOf(crops []Crop, id string) int {
	return slices.IndexFunc(crops, func(cr Crop) bool { return cr.ID == id })
}

func cloneAll(crops []Crop) []Crop {
	if crops == nil {
		return nil
	}
	out := make([]Crop, len(crops))
	for i, cr := range crops {
		out[i] = cr.clone()
	}
	return out
}
