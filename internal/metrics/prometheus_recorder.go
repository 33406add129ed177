package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus counters.
type PrometheusRecorder struct {
	writes          *prom.CounterVec
	persistFailures *prom.CounterVec
	externalSyncs   *prom.CounterVec
	expiredTasks    prom.Counter
}

// NewPrometheusRecorder constructs the counters and registers them with reg
// (a fresh registry when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		writes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "kencana",
			Name:      "state_writes_total",
			Help:      "Writes issued against persisted state, by storage key",
		}, []string{"key"}),
		persistFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "kencana",
			Name:      "state_persist_failures_total",
			Help:      "Writes that updated memory but could not be persisted",
		}, []string{"key", "stage"}),
		externalSyncs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "kencana",
			Name:      "state_external_syncs_total",
			Help:      "Values adopted from changes made by another process",
		}, []string{"key"}),
		expiredTasks: prom.NewCounter(prom.CounterOpts{
			Namespace: "kencana",
			Name:      "tasks_expired_total",
			Help:      "Completed tasks dropped after the retention window",
		}),
	}
	reg.MustRegister(pr.writes, pr.persistFailures, pr.externalSyncs, pr.expiredTasks)
	return pr
}

func (p *PrometheusRecorder) IncWrite(key string) {
	p.writes.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) IncPersistFailure(key string, stage FailureStage) {
	p.persistFailures.WithLabelValues(key, string(stage)).Inc()
}

func (p *PrometheusRecorder) IncExternalSync(key string) {
	p.externalSyncs.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) AddExpiredTasks(n int) {
	if n > 0 {
		p.expiredTasks.Add(float64(n))
	}
}
