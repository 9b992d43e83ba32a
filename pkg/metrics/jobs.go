package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics tracks maintenance job runs.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_job_runs_total",
		Help: "Maintenance job runs by outcome.",
	}, []string{"job", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_job_duration_seconds",
		Help:    "Maintenance job wall time in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(runs, duration)
	return &JobMetrics{runs: runs, duration: duration}
}

func (m *JobMetrics) Observe(job string, d time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	job = normalizeLabel(job)
	m.runs.WithLabelValues(job, outcome).Inc()
	m.duration.WithLabelValues(job).Observe(d.Seconds())
}
