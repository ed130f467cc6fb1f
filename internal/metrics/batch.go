package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Job outcomes used as the "outcome" label.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

// BatchMetrics counts batch jobs by outcome and times them.
type BatchMetrics struct {
	jobs     *prometheus.CounterVec
	duration prometheus.Histogram
	active   prometheus.Gauge
}

// NewBatchMetrics creates the batch metrics under namespace and registers
// them with reg. A nil reg leaves them unregistered.
func NewBatchMetrics(reg prometheus.Registerer, namespace string) *BatchMetrics {
	m := &BatchMetrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "batch", Name: "jobs_total",
			Help: "Number of batch jobs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "batch", Name: "job_duration_seconds",
			Help:    "Wall-clock duration of batch jobs.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "batch", Name: "active_jobs",
			Help: "Number of batch jobs currently running.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.jobs, m.duration, m.active)
	}
	return m
}

// JobStarted marks a job as running.
func (m *BatchMetrics) JobStarted() { m.active.Inc() }

// JobFinished records the outcome and duration of a job.
func (m *BatchMetrics) JobFinished(outcome string, elapsed time.Duration) {
	m.active.Dec()
	m.jobs.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
