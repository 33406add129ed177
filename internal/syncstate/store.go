// Package syncstate keeps JSON-serializable values durable and synchronized.
//
// A Value behaves like in-memory state bound to a storage key: it is read
// through from a storage.Backend when opened, written back on every
// mutation, shared with every other Value of the same key in the same
// Registry, and refreshed when another process changes the key (for
// backends implementing storage.Watcher).
//
// Persistence is best effort. Serialization and storage failures are
// logged and counted but never returned; the in-memory value always moves
// forward.
package syncstate

import (
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/logging"
	"github.com/JamesPrial/kencana-farm/internal/metrics"
	"github.com/JamesPrial/kencana-farm/internal/storage"
)

// Store bundles what every Value needs: durable storage, the in-process
// registry, a logger and a metrics recorder.
type Store struct {
	backend  storage.Backend
	registry *Registry
	logger   *zap.Logger
	recorder metrics.Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithRegistry shares reg with other Stores. By default each Store owns a
// private Registry.
func WithRegistry(reg *Registry) Option {
	return func(s *Store) { s.registry = reg }
}

// WithLogger sets the logger used for swallowed persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// NewStore returns a Store writing through backend.
func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	s.logger = logging.OrNop(s.logger)
	s.recorder = metrics.OrNoop(s.recorder)
	return s
}

// Registry returns the in-process registry.
func (s *Store) Registry() *Registry { return s.registry }

// Logger returns the store's logger.
func (s *Store) Logger() *zap.Logger { return s.logger }

// Recorder returns the store's metrics recorder.
func (s *Store) Recorder() metrics.Recorder { return s.recorder }
