package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCronJobMetricsSkipsDurationForSkippedRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("currency-refresh", "success", 50*time.Millisecond)
	m.ObserveRun("currency-refresh", "skipped", 0)
	m.ObserveRun("", "failure", time.Second)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "maintenance_job_runs_total", map[string]string{"job": "unknown", "outcome": "failure"})
	if err != nil || got != 1 {
		t.Fatalf("expected one unknown failure, got %v (%v)", got, err)
	}
	got, err = fetchCounterValue(mfs, "maintenance_job_runs_total", map[string]string{"job": "currency-refresh", "outcome": "skipped"})
	if err != nil || got != 1 {
		t.Fatalf("expected one skipped run, got %v (%v)", got, err)
	}

	mf := findMetricFamily(mfs, "maintenance_job_duration_seconds")
	if mf == nil {
		t.Fatalf("duration histogram missing")
	}
	var samples uint64
	for _, metric := range mf.GetMetric() {
		samples += metric.GetHistogram().GetSampleCount()
	}
	if samples != 2 {
		t.Fatalf("expected 2 duration samples, got %d", samples)
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", "success", time.Second)
	NewCronJobMetrics(nil).ObserveRun("job", "success", time.Second)
}
