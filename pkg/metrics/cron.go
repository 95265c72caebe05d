package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records maintenance job runs. Skipped runs (lock held elsewhere) are counted apart
// from failures.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maintenance_job_duration_seconds",
			Help:    "Duration of maintenance jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_job_runs_total",
			Help: "Maintenance job runs by outcome.",
		}, []string{"job", "outcome"}),
	}
	reg.MustRegister(m.duration, m.runs)
	return m
}

func (m *CronJobMetrics) ObserveRun(job, outcome string, took time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(job), normalizeLabel(outcome)).Inc()
	if outcome != "skipped" {
		m.duration.WithLabelValues(normalizeLabel(job)).Observe(took.Seconds())
	}
}
