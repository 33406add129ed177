// Package metrics defines observability hooks for the farm state store.
package metrics

// FailureStage names the step of a write that failed.
type FailureStage string

const (
	StageEncode FailureStage = "encode"
	StageSave   FailureStage = "save"
)

// Recorder receives state store events. Implementations may forward to
// Prometheus or elsewhere; NoopRecorder is the default.
type Recorder interface {
	// IncWrite counts a write issued against key.
	IncWrite(key string)
	// IncPersistFailure counts a write whose durability was lost.
	IncPersistFailure(key string, stage FailureStage)
	// IncExternalSync counts a value adopted from another execution context.
	IncExternalSync(key string)
	// AddExpiredTasks counts completed tasks dropped by the expiry window.
	AddExpiredTasks(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncWrite(string)                        {}
func (NoopRecorder) IncPersistFailure(string, FailureStage) {}
func (NoopRecorder) IncExternalSync(string)                 {}
func (NoopRecorder) AddExpiredTasks(int)                    {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
