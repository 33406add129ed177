package growth

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/logging"
	"github.com/JamesPrial/kencana-farm/internal/task"
)

// CropObserver applies growth checks to stored crops.
type CropObserver interface {
	Observe(id string, obs crop.Observation) (crop.Crop, bool)
}

// TaskAdder creates reminders.
type TaskAdder interface {
	Add(d task.Draft) task.Task
}

// ReminderTime is the layout of the time stamped on generated reminders.
const ReminderTime = "15:04"

// Monitor records growth checks.
type Monitor struct {
	crops  CropObserver
	tasks  TaskAdder
	clock  clockwork.Clock
	logger *zap.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the clock used to stamp reminders.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Monitor) { m.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = logging.OrNop(l) }
}

// NewMonitor returns a Monitor writing to crops and tasks.
func NewMonitor(crops CropObserver, tasks TaskAdder, opts ...Option) *Monitor {
	m := &Monitor{
		crops:  crops,
		tasks:  tasks,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record applies analysis a of photo to the crop with id: the crop advances
// one stage, takes the analysed health and keeps the photo. Each suggestion
// becomes a reminder titled "<suggestion> - <crop name>", labelled with the
// crop's location (or name when it has none) and stamped with the current
// time of day.
//
// It reports false, creating nothing, when the crop does not exist or ctx
// is already done.
func (m *Monitor) Record(ctx context.Context, id, photo string, a Analysis) (crop.Crop, []task.Task, bool) {
	if ctx.Err() != nil {
		return crop.Crop{}, nil, false
	}

	updated, ok := m.crops.Observe(id, crop.Observation{Health: a.Health, Photo: photo})
	if !ok {
		m.logger.Debug("growth check for unknown crop", zap.String("crop_id", id))
		return crop.Crop{}, nil, false
	}

	label := updated.Location
	if label == "" {
		label = updated.Name
	}
	at := m.clock.Now().Format(ReminderTime)

	added := make([]task.Task, 0, len(a.Suggestions))
	for _, s := range a.Suggestions {
		added = append(added, m.tasks.Add(task.Draft{
			Title: s + " - " + updated.Name,
			Crop:  label,
			Time:  at,
			Type:  task.ClassifySuggestion(s),
		}))
	}

	m.logger.Info("recorded growth check",
		zap.String("crop_id", id),
		zap.Stringer("stage", updated.Stage()),
		zap.Int("health", a.Health),
		zap.Int("reminders", len(added)))
	return updated, added, true
}
