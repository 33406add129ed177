// Package farm wires storage, the crop and task collections and the growth
// monitor into one handle shared by the CLI and the MCP server.
package farm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/config"
	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/growth"
	"github.com/JamesPrial/kencana-farm/internal/harvest"
	"github.com/JamesPrial/kencana-farm/internal/logging"
	"github.com/JamesPrial/kencana-farm/internal/metrics"
	"github.com/JamesPrial/kencana-farm/internal/snapshot"
	"github.com/JamesPrial/kencana-farm/internal/storage"
	"github.com/JamesPrial/kencana-farm/internal/syncstate"
	"github.com/JamesPrial/kencana-farm/internal/task"
)

// Farm is an open farm state.
type Farm struct {
	Crops  *crop.Collection
	Tasks  *task.Collection
	Growth *growth.Monitor

	backend storage.Backend
	clock   clockwork.Clock
	logger  *zap.Logger
}

// Option configures a Farm.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	registry *syncstate.Registry
	newID    func() string
}

// WithClock sets the clock used for task expiry, reminder times and
// harvest predictions.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithRegistry shares reg with other farms in the same process, so their
// writes are seen without a round trip through storage.
func WithRegistry(reg *syncstate.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithIDGenerator sets the generator for new crop ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// Open builds the storage backend selected by cfg and opens the farm on
// it. The farm owns the backend and closes it in Close.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, recorder metrics.Recorder, opts ...Option) (*Farm, error) {
	backend, err := storage.NewBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	f, err := New(ctx, backend, logger, recorder, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	logging.OrNop(logger).Debug("farm opened", zap.String("backend", cfg.Storage.Backend))
	return f, nil
}

// New opens the farm on an existing backend, which the farm then owns.
func New(ctx context.Context, backend storage.Backend, logger *zap.Logger, recorder metrics.Recorder, opts ...Option) (*Farm, error) {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	logger = logging.OrNop(logger)

	storeOpts := []syncstate.Option{
		syncstate.WithLogger(logger),
		syncstate.WithRecorder(recorder),
	}
	if o.registry != nil {
		storeOpts = append(storeOpts, syncstate.WithRegistry(o.registry))
	}
	store := syncstate.NewStore(backend, storeOpts...)

	var cropOpts []crop.Option
	if o.newID != nil {
		cropOpts = append(cropOpts, crop.WithIDGenerator(o.newID))
	}
	crops, err := crop.Open(ctx, store, cropOpts...)
	if err != nil {
		return nil, err
	}
	tasks, err := task.Open(ctx, store, task.WithClock(o.clock))
	if err != nil {
		_ = crops.Close()
		return nil, err
	}

	return &Farm{
		Crops: crops,
		Tasks: tasks,
		Growth: growth.NewMonitor(crops, tasks,
			growth.WithClock(o.clock),
			growth.WithLogger(logger)),
		backend: backend,
		clock:   o.clock,
		logger:  logger,
	}, nil
}

// Now returns the farm's current time.
func (f *Farm) Now() time.Time { return f.clock.Now() }

// Predictions forecasts the harvest of every crop.
func (f *Farm) Predictions() []harvest.Prediction {
	return harvest.PredictAll(f.Crops.List(), f.clock.Now())
}

// Summary aggregates Predictions.
func (f *Farm) Summary() harvest.Summary {
	return harvest.Summarize(f.Predictions())
}

// Export captures both collections as a snapshot keyed by their storage
// keys. Expired tasks are left out.
func (f *Farm) Export() (snapshot.Snapshot, error) {
	return snapshot.Build(map[string]any{
		crop.StorageKey: f.Crops.List(),
		task.StorageKey: f.Tasks.List(),
	})
}

// Import replaces the collections present in s and returns the keys it
// imported. Nothing is replaced if either collection fails to decode or
// holds invalid records (duplicate or missing ids, out-of-range fields,
// unknown task types).
func (f *Farm) Import(s snapshot.Snapshot) ([]string, error) {
	crops, hasCrops, err := snapshot.Decode[[]crop.Crop](s, crop.StorageKey)
	if err != nil {
		return nil, err
	}
	tasks, hasTasks, err := snapshot.Decode[[]task.Task](s, task.StorageKey)
	if err != nil {
		return nil, err
	}
	if err := crop.ValidateCollection(crops); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", crop.StorageKey, err)
	}
	if err := task.ValidateCollection(tasks); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", task.StorageKey, err)
	}

	var imported []string
	if hasCrops {
		f.Crops.Replace(crops)
		imported = append(imported, crop.StorageKey)
	}
	if hasTasks {
		f.Tasks.Replace(tasks)
		imported = append(imported, task.StorageKey)
	}
	f.logger.Info("imported snapshot", zap.Strings("keys", imported))
	return imported, nil
}

// Close stops synchronization and releases the backend.
func (f *Farm) Close() error {
	return errors.Join(f.Crops.Close(), f.Tasks.Close(), f.backend.Close())
}
