package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order assembly, payment webhook and notification outcomes.
// A nil receiver or one built without a registerer is a no-op.
type CheckoutMetrics struct {
	ordersCreated        *prometheus.CounterVec
	checkoutFailures     *prometheus.CounterVec
	checkoutDuration     prometheus.Histogram
	webhookEvents        *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders committed by checkout.",
		}, []string{"payment_method", "currency"}),
		checkoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_failures_total",
			Help: "Checkout attempts rejected before commit.",
		}, []string{"reason"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Time spent assembling and persisting an order.",
			Buckets: prometheus.DefBuckets,
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment gateway webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Best-effort side effects that failed and were skipped.",
		}, []string{"name"}),
	}
	reg.MustRegister(m.ordersCreated, m.checkoutFailures, m.checkoutDuration, m.webhookEvents, m.notificationFailures)
	return m
}

func (m *CheckoutMetrics) OrderCreated(paymentMethod, currency string, took time.Duration) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod), normalizeLabel(currency)).Inc()
	m.checkoutDuration.Observe(took.Seconds())
}

func (m *CheckoutMetrics) CheckoutFailed(reason string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *CheckoutMetrics) WebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) NotificationFailed(name string) {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.WithLabelValues(normalizeLabel(name)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
