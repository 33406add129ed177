package syncstate

import (
	"bytes"
	"sync"
)

// Listener receives the serialized value published under a key.
type Listener func(data []byte)

// Registry maps storage keys to subscribers within one execution context.
//
// A Registry plays the part of the per-tab listener table: every Value
// opened through Stores sharing a Registry sees the others' writes
// immediately, without a round trip through durable storage.
type Registry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]Listener

	commitMu sync.Mutex
	commits  map[string]*sync.Mutex
}

// Subscription is a Listener's registration for one key.
type Subscription struct {
	registry *Registry
	key      string
	id       uint64
	once     sync.Once
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		subs:    make(map[string]map[uint64]Listener),
		commits: make(map[string]*sync.Mutex),
	}
}

// lockKey serializes the commit step (settle and publish) of writes to key
// across every Value sharing the registry. It must not be held while saving
// to durable storage.
func (r *Registry) lockKey(key string) (unlock func()) {
	r.commitMu.Lock()
	m, ok := r.commits[key]
	if !ok {
		m = &sync.Mutex{}
		r.commits[key] = m
	}
	r.commitMu.Unlock()

	m.Lock()
	return m.Unlock
}

// Subscribe registers l for key until the returned Subscription is
// unsubscribed.
func (r *Registry) Subscribe(key string, l Listener) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	if r.subs[key] == nil {
		r.subs[key] = make(map[uint64]Listener)
	}
	r.subs[key][r.nextID] = l

	return &Subscription{registry: r, key: key, id: r.nextID}
}

// Unsubscribe removes the listener. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		r := s.registry
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.subs[s.key], s.id)
		if len(r.subs[s.key]) == 0 {
			delete(r.subs, s.key)
		}
	})
}

// Key returns the key the subscription listens on.
func (s *Subscription) Key() string {
	return s.key
}

// Publish delivers a copy of data to every subscriber of key except origin
// (which may be nil) and returns the number of deliveries.
//
// Listeners run synchronously on the publishing goroutine, outside the
// registry lock, so they may subscribe or unsubscribe.
func (r *Registry) Publish(key string, data []byte, origin *Subscription) int {
	r.mu.RLock()
	targets := make([]Listener, 0, len(r.subs[key]))
	for id, l := range r.subs[key] {
		if origin != nil && origin.registry == r && origin.key == key && origin.id == id {
			continue
		}
		targets = append(targets, l)
	}
	r.mu.RUnlock()

	for _, l := range targets {
		l(bytes.Clone(data))
	}
	return len(targets)
}

// Subscribers returns the number of listeners registered for key.
func (r *Registry) Subscribers(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[key])
}
