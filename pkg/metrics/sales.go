package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics records outcomes of the sale pipeline.
type SaleMetrics struct {
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewSaleMetrics registers the sale metrics on the provided registerer. A nil
// registerer yields a recorder that drops every observation.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	if reg == nil {
		return &SaleMetrics{}
	}
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Sales that reached the completed state.",
	}, []string{"channel"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Sales that errored, by the state they failed in.",
	}, []string{"channel", "state"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sale_duration_seconds",
		Help:    "Wall time of one sale attempt in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	reg.MustRegister(completed, failed, duration)
	return &SaleMetrics{
		completed: completed,
		failed:    failed,
		duration:  duration,
	}
}

func (m *SaleMetrics) IncCompleted(channel string) {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.WithLabelValues(normalizeLabel(channel)).Inc()
}

func (m *SaleMetrics) IncFailed(channel, state string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(channel), normalizeLabel(state)).Inc()
}

func (m *SaleMetrics) ObserveDuration(channel string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(channel)).Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
