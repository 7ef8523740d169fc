package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics records worker-side processing of AI runs.
type RunMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	claimed  prometheus.Counter
}

// NewRunMetrics registers the run metrics on the provided registerer.
func NewRunMetrics(reg prometheus.Registerer) *RunMetrics {
	if reg == nil {
		return &RunMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ai_run_duration_seconds",
		Help:    "Wall-clock duration of AI run processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline_version"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_run_success",
		Help: "AI runs that reached done.",
	}, []string{"pipeline_version"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_run_failure",
		Help: "AI runs that reached error.",
	}, []string{"pipeline_version"})
	claimed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ai_run_claimed",
		Help: "Pending AI runs claimed by the worker.",
	})
	reg.MustRegister(duration, success, failure, claimed)
	return &RunMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		claimed:  claimed,
	}
}

// ObserveDuration records how long a run took end to end.
func (m *RunMetrics) ObserveDuration(pipelineVersion string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(pipelineVersion)).Observe(duration.Seconds())
}

// IncSuccess increments the done counter.
func (m *RunMetrics) IncSuccess(pipelineVersion string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(pipelineVersion)).Inc()
}

// IncFailure increments the error counter.
func (m *RunMetrics) IncFailure(pipelineVersion string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(pipelineVersion)).Inc()
}

// IncClaimed increments the claim counter.
func (m *RunMetrics) IncClaimed() {
	if m == nil || m.claimed == nil {
		return
	}
	m.claimed.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
