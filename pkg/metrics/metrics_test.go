package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSaleMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSaleMetrics(reg)
	m.IncCompleted("pos")
	m.IncCompleted("pos")
	m.IncFailed("pos", "reserving_stock")
	m.ObserveDuration("pos", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "sales_completed_total", map[string]string{"channel": "pos"}); err != nil {
		t.Fatalf("fetch completed: %v", err)
	} else if got != 2 {
		t.Fatalf("expected completed=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sales_failed_total", map[string]string{"channel": "pos", "state": "reserving_stock"}); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "sale_duration_seconds", map[string]string{"channel": "pos"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestOutboxMetricsCountPerEventType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("order.created")
	m.IncFailed("order.created")
	m.IncDead("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_published_total", map[string]string{"event_type": "order.created"}); err != nil || got != 1 {
		t.Fatalf("expected published=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_dead_total", map[string]string{"event_type": "unknown"}); err != nil || got != 1 {
		t.Fatalf("expected dead=1 under unknown label, got %f (%v)", got, err)
	}
}

func TestJobMetricsSplitOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	m.Observe("outbox-retention", time.Second, nil)
	m.Observe("outbox-retention", time.Second, fmt.Errorf("db down"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, outcome := range []string{"success", "failure"} {
		got, err := fetchCounterValue(mfs, "maintenance_job_runs_total", map[string]string{"job": "outbox-retention", "outcome": outcome})
		if err != nil || got != 1 {
			t.Fatalf("expected %s=1, got %f (%v)", outcome, got, err)
		}
	}
}

func TestNilRegistererDropsObservations(t *testing.T) {
	var sales *SaleMetrics
	sales.IncCompleted("pos")
	NewSaleMetrics(nil).IncFailed("pos", "validating")
	NewOutboxMetrics(nil).IncPublished("order.created")
	NewJobMetrics(nil).Observe("job", time.Second, nil)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
