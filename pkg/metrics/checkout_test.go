package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.OrderCreated("stripe", "USD", 120*time.Millisecond)
	m.OrderCreated("stripe", "USD", 80*time.Millisecond)
	m.CheckoutFailed("")
	m.WebhookEvent("payment_intent.succeeded", "applied")
	m.NotificationFailed("order_confirmation")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"orders_created_total", map[string]string{"payment_method": "stripe", "currency": "USD"}, 2},
		{"checkout_failures_total", map[string]string{"reason": "unknown"}, 1},
		{"payment_webhook_events_total", map[string]string{"type": "payment_intent.succeeded", "outcome": "applied"}, 1},
		{"notification_failures_total", map[string]string{"name": "order_confirmation"}, 1},
	}
	for _, check := range checks {
		got, err := fetchCounterValue(mfs, check.name, check.labels)
		if err != nil {
			t.Fatalf("%s: %v", check.name, err)
		}
		if got != check.want {
			t.Fatalf("%s: expected %v, got %v", check.name, check.want, got)
		}
	}

	mf := findMetricFamily(mfs, "checkout_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected two checkout duration samples")
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var m *CheckoutMetrics
	m.OrderCreated("stripe", "USD", time.Second)
	m.CheckoutFailed("x")
	m.WebhookEvent("x", "y")
	m.NotificationFailed("x")

	unregistered := NewCheckoutMetrics(nil)
	unregistered.NotificationFailed("x")
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
		if value, ok := want[pair.GetName()]; ok && value == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
