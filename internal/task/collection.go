package task

import (
	"context"
	"fmt"
	"slices"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/metrics"
	"github.com/JamesPrial/kencana-farm/internal/syncstate"
)

// StorageKey is the key holding the task collection.
const StorageKey = "kencana_tasks_v1"

// Collection is the ordered set of reminders persisted under StorageKey.
//
// Reads never include expired tasks. Every write drops expired tasks from
// storage before and after applying its change; Compact does the same on
// demand. Lookups by an unknown id are no-ops.
type Collection struct {
	value    *syncstate.Value[[]Task]
	clock    clockwork.Clock
	logger   *zap.Logger
	recorder metrics.Recorder
}

// Option configures a Collection.
type Option func(*Collection)

// WithClock sets the clock used for completion stamps and expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Collection) { c.clock = clock }
}

// Open loads the task collection from store. An absent or unreadable stored
// collection starts with DefaultTasks.
func Open(ctx context.Context, store *syncstate.Store, opts ...Option) (*Collection, error) {
	value, err := syncstate.Open(ctx, store, StorageKey, DefaultTasks())
	if err != nil {
		return nil, fmt.Errorf("failed to open task collection: %w", err)
	}

	c := &Collection{
		value:    value,
		clock:    clockwork.NewRealClock(),
		logger:   store.Logger(),
		recorder: store.Recorder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns the visible tasks in insertion order.
func (c *Collection) List() []Task {
	return Visible(c.value.Get(), c.clock.Now())
}

// Active returns the visible tasks not yet completed.
func (c *Collection) Active() []Task {
	return filter(c.List(), func(t Task) bool { return !t.Completed })
}

// Completed returns the visible completed tasks.
func (c *Collection) Completed() []Task {
	return filter(c.List(), func(t Task) bool { return t.Completed })
}

// Get returns the visible task with id.
func (c *Collection) Get(id int) (Task, bool) {
	for _, t := range c.List() {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Add appends a new, incomplete task and returns it. Its id is one more
// than the highest stored id, counting expired tasks not yet dropped, or 1
// when the collection is empty. An empty type becomes TypeOther.
func (c *Collection) Add(d Draft) Task {
	if d.Type == "" {
		d.Type = TypeOther
	}

	var added Task
	c.mutate(func(all, live []Task) ([]Task, bool) {
		nextID := 1
		for _, t := range all {
			nextID = max(nextID, t.ID+1)
		}
		added = Task{ID: nextID, Title: d.Title, Crop: d.Crop, Time: d.Time, Type: d.Type}
		return append(slices.Clone(live), added), true
	})
	return added
}

// ToggleComplete flips the completion of the task with id, stamping or
// clearing its completion time.
func (c *Collection) ToggleComplete(id int) (Task, bool) {
	now := c.clock.Now()
	var toggled Task
	_, found := c.mutate(func(_, live []Task) ([]Task, bool) {
		i := indexOf(live, id)
		if i < 0 {
			return nil, false
		}
		t := live[i].clone()
		if t.Completed {
			t.Completed = false
			t.CompletedAt = nil
		} else {
			ms := now.UnixMilli()
			t.Completed = true
			t.CompletedAt = &ms
		}
		toggled = t
		next := slices.Clone(live)
		next[i] = t
		return next, true
	})
	return toggled, found
}

// Update merges p into the task with id.
func (c *Collection) Update(id int, p Patch) bool {
	_, found := c.mutate(func(_, live []Task) ([]Task, bool) {
		i := indexOf(live, id)
		if i < 0 {
			return nil, false
		}
		next := slices.Clone(live)
		next[i] = p.Apply(live[i])
		return next, true
	})
	return found
}

// Delete removes the task with id.
func (c *Collection) Delete(id int) bool {
	_, found := c.mutate(func(_, live []Task) ([]Task, bool) {
		i := indexOf(live, id)
		if i < 0 {
			return nil, false
		}
		return slices.Delete(slices.Clone(live), i, i+1), true
	})
	return found
}

// Compact removes expired tasks from storage and returns how many were
// dropped. Nothing is written when none expired.
func (c *Collection) Compact() int {
	now := c.clock.Now()
	removed := 0
	c.value.Modify(func(prev []Task) ([]Task, bool) {
		live := Visible(prev, now)
		removed = len(prev) - len(live)
		return live, removed > 0
	})
	if removed > 0 {
		c.recorder.AddExpiredTasks(removed)
		c.logger.Debug("compacted expired tasks", zap.Int("removed", removed))
	}
	return removed
}

// Replace overwrites the whole collection, as when importing a snapshot.
// Tasks already expired are dropped.
func (c *Collection) Replace(tasks []Task) {
	c.mutate(func(_, _ []Task) ([]Task, bool) {
		return Visible(tasks, c.clock.Now()), true
	})
}

// Subscribe calls fn with the visible tasks after every change, including
// changes made by other consumers of the same storage.
func (c *Collection) Subscribe(fn func([]Task)) (cancel func()) {
	return c.value.Subscribe(func(tasks []Task) {
		fn(Visible(tasks, c.clock.Now()))
	})
}

// Close stops synchronization.
func (c *Collection) Close() error {
	return c.value.Close()
}

// mutate applies fn to the stored tasks. fn receives every stored task and
// the visible subset; when it reports a change, the result is stored with
// expired tasks removed.
func (c *Collection) mutate(fn func(all, live []Task) ([]Task, bool)) ([]Task, bool) {
	now := c.clock.Now()
	expired := 0
	out, changed := c.value.Modify(func(prev []Task) ([]Task, bool) {
		live := Visible(prev, now)
		next, ok := fn(prev, live)
		if !ok {
			return prev, false
		}
		expired = len(prev) - len(live)
		return Visible(next, now), true
	})
	if expired > 0 {
		c.recorder.AddExpiredTasks(expired)
	}
	return out, changed
}

func indexOf(tasks []Task, id int) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}

func filter(tasks []Task, keep func(Task) bool) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
