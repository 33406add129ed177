package syncstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/metrics"
	"github.com/JamesPrial/kencana-farm/internal/storage"
)

// Value is a T persisted under a storage key.
//
// Values returned by Get and passed to observers are shared; callers must
// treat them as read-only and build new values in Update instead of mutating
// in place.
type Value[T any] struct {
	store *Store
	key   string

	// writeMu serializes writes end to end (persist, publish, notify).
	writeMu sync.Mutex

	// mu guards the fields below.
	mu        sync.RWMutex
	current   T
	raw       []byte // serialized form of current; nil if never serialized
	pending   [][]byte
	observers map[uint64]func(T)
	nextObs   uint64

	sub    *Subscription
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed sync.Once
}

// Open reads key from the store's backend and returns a Value holding the
// decoded result, or initial when the key is absent or cannot be decoded.
// Nothing is written until the first mutation.
//
// If the backend implements storage.Watcher, changes made by other writers
// are adopted until Close is called.
func Open[T any](ctx context.Context, store *Store, key string, initial T) (*Value[T], error) {
	v := &Value[T]{
		store:     store,
		key:       key,
		current:   initial,
		observers: make(map[uint64]func(T)),
		done:      make(chan struct{}),
	}
	v.load(ctx)

	v.ctx, v.cancel = context.WithCancel(context.Background())

	var changes <-chan storage.Change
	if w, ok := store.backend.(storage.Watcher); ok {
		ch, err := w.Watch(v.ctx, key)
		if err != nil {
			v.cancel()
			return nil, err
		}
		changes = ch
	}

	v.sub = store.registry.Subscribe(key, func(data []byte) {
		v.adopt(data, false)
	})

	if changes == nil {
		close(v.done)
	} else {
		go v.watch(changes)
	}
	return v, nil
}

// load replaces the initial value with the stored one when it decodes.
func (v *Value[T]) load(ctx context.Context) {
	data, err := v.store.backend.Load(ctx, v.key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		v.store.logger.Warn("failed to read stored value, using initial value",
			zap.String("key", v.key), zap.Error(err))
		return
	}

	decoded, canonical, err := decode[T](data)
	if err != nil {
		v.store.logger.Warn("stored value is malformed, using initial value",
			zap.String("key", v.key), zap.Error(err))
		return
	}
	v.current = decoded
	v.raw = canonical
}

// Key returns the storage key.
func (v *Value[T]) Key() string { return v.key }

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the value and returns it.
func (v *Value[T]) Set(next T) T {
	out, _ := v.write(func(T) (T, bool) { return next, true })
	return out
}

// Update replaces the value with fn(previous) and returns the result.
//
// fn runs under the value's lock and must not call methods on v.
func (v *Value[T]) Update(fn func(prev T) T) T {
	out, _ := v.write(func(prev T) (T, bool) { return fn(prev), true })
	return out
}

// Modify is Update for changes that may turn out to be no-ops: when fn
// reports false nothing is written, published or notified, and the current
// value is returned unchanged.
func (v *Value[T]) Modify(fn func(prev T) (T, bool)) (T, bool) {
	return v.write(fn)
}

func (v *Value[T]) write(fn func(prev T) (T, bool)) (T, bool) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	v.mu.Lock()
	next, changed := fn(v.current)
	if !changed {
		cur := v.current
		v.mu.Unlock()
		return cur, false
	}
	v.current = next
	data, encodeErr := json.Marshal(next)
	if encodeErr != nil {
		v.raw = nil
	} else {
		v.raw = data
		if v.ctx.Err() == nil {
			v.expectEcho(data)
		}
	}
	v.mu.Unlock()

	if v.ctx.Err() != nil {
		v.notify(next)
		return next, true
	}
	v.store.recorder.IncWrite(v.key)

	if encodeErr != nil {
		v.store.logger.Warn("failed to serialize value, change kept in memory only",
			zap.String("key", v.key), zap.Error(encodeErr))
		v.store.recorder.IncPersistFailure(v.key, metrics.StageEncode)
		v.notify(next)
		return next, true
	}

	if err := v.store.backend.Save(v.ctx, v.key, data); err != nil {
		v.store.logger.Warn("failed to persist value, change kept in memory only",
			zap.String("key", v.key), zap.Error(err))
		v.store.recorder.IncPersistFailure(v.key, metrics.StageSave)
	}

	if settled, ok := v.commit(data); ok {
		v.notify(settled)
	} else {
		v.notify(next)
	}
	return next, true
}

// commit publishes the outcome of a write that saved data.
//
// Another writer of the same key may have landed while data was being
// saved, in which case v already holds an adopted value that durable
// storage may not. v then settles on whatever storage holds and publishes
// that, so every Value of the key ends up agreeing with storage. The
// returned value is the settled one when it differs from data.
func (v *Value[T]) commit(data []byte) (T, bool) {
	unlock := v.store.registry.lockKey(v.key)
	defer unlock()

	v.mu.Lock()
	if v.raw != nil && bytes.Equal(v.raw, data) {
		v.mu.Unlock()
		v.store.registry.Publish(v.key, data, v.sub)
		var zero T
		return zero, false
	}
	v.mu.Unlock()

	stored, err := v.store.backend.Load(v.ctx, v.key)
	var (
		decoded   T
		canonical []byte
	)
	if err == nil {
		decoded, canonical, err = decode[T](stored)
	}
	if err != nil {
		// Storage cannot arbitrate; share what v holds so that the
		// in-process instances still agree.
		v.store.logger.Debug("failed to reload value after interleaved write",
			zap.String("key", v.key), zap.Error(err))
		v.mu.Lock()
		cur, raw := v.current, v.raw
		v.mu.Unlock()
		if raw != nil {
			v.store.registry.Publish(v.key, raw, v.sub)
		}
		return cur, true
	}

	v.mu.Lock()
	v.current = decoded
	v.raw = canonical
	v.mu.Unlock()

	v.store.logger.Debug("settled interleaved write on stored value", zap.String("key", v.key))
	v.store.registry.Publish(v.key, canonical, v.sub)
	return decoded, true
}

// adopt replaces the value with a serialized one received from the registry
// or from durable storage, unless it equals what v already holds.
//
// Values published through the registry were also saved by their writer,
// so their storage echo is expected just like the echo of v's own writes.
// An unexpected external change supersedes every write still awaiting its
// echo.
func (v *Value[T]) adopt(data []byte, external bool) {
	decoded, canonical, err := decode[T](data)
	if err != nil {
		v.store.logger.Debug("ignoring undecodable change",
			zap.String("key", v.key), zap.Bool("external", external), zap.Error(err))
		return
	}

	v.mu.Lock()
	if external && v.consumeEcho(canonical) {
		v.mu.Unlock()
		return
	}
	if v.raw != nil && bytes.Equal(v.raw, canonical) {
		v.mu.Unlock()
		return
	}
	v.current = decoded
	v.raw = canonical
	if external {
		v.pending = nil
	} else {
		v.expectEcho(canonical)
	}
	v.mu.Unlock()

	if external {
		v.store.recorder.IncExternalSync(v.key)
		v.store.logger.Debug("adopted external change", zap.String("key", v.key))
	}
	v.notify(decoded)
}

// maxPendingEchoes bounds the writes remembered while waiting for their
// echo from durable storage.
const maxPendingEchoes = 32

// expectEcho remembers data as saved to durable storage so that its delayed
// echo from the storage watch is not mistaken for a newer external change.
// Must be called with v.mu held.
func (v *Value[T]) expectEcho(data []byte) {
	if len(v.pending) == maxPendingEchoes {
		v.pending = v.pending[1:]
	}
	v.pending = append(v.pending, data)
}

// consumeEcho reports whether data is the echo of one of v's own writes and
// forgets that write along with any older ones. Must be called with v.mu held.
func (v *Value[T]) consumeEcho(data []byte) bool {
	for i, p := range v.pending {
		if bytes.Equal(p, data) {
			v.pending = v.pending[i+1:]
			return true
		}
	}
	return false
}

func (v *Value[T]) watch(changes <-chan storage.Change) {
	defer close(v.done)
	for c := range changes {
		// Removal leaves the in-memory value in place
		if c.Value == nil {
			continue
		}
		v.adopt(c.Value, true)
	}
}

// Subscribe registers fn to be called with every new value, whether written
// through v, published by another Value of the same key, or adopted from
// durable storage. The returned function cancels the subscription.
//
// fn runs synchronously and must not write to v or to another Value of the
// same key.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	v.nextObs++
	id := v.nextObs
	v.observers[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

func (v *Value[T]) notify(val T) {
	v.mu.RLock()
	fns := make([]func(T), 0, len(v.observers))
	for _, fn := range v.observers {
		fns = append(fns, fn)
	}
	v.mu.RUnlock()

	for _, fn := range fns {
		fn(val)
	}
}

// Close detaches v from the registry and stops watching durable storage.
// Later writes still change the in-memory value but are no longer
// persisted or published.
func (v *Value[T]) Close() error {
	v.closed.Do(func() {
		v.sub.Unsubscribe()
		v.cancel()
		<-v.done
	})
	return nil
}

// decode parses data into a T and returns it with its canonical encoding,
// so that values differing only in formatting or key order compare equal.
func decode[T any](data []byte) (T, []byte, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, nil, err
	}
	canonical, err := json.Marshal(out)
	if err != nil {
		return out, nil, err
	}
	return out, canonical, nil
}
