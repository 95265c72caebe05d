package stripewebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

const testSecret = "whsec_test"

func TestVerifyWebhookSignature(t *testing.T) {
	payload := eventPayload(t, "evt_1", stripe.EventTypePaymentIntentSucceeded, `{"id":"pi_1","object":"payment_intent"}`)
	now := time.Now().Unix()

	event, err := NewVerifier(testSecret).VerifyWebhookSignature(payload, signatureHeader(payload, testSecret, now))
	if err != nil {
		t.Fatalf("VerifyWebhookSignature: %v", err)
	}
	if event.ID != "evt_1" || event.Type != stripe.EventTypePaymentIntentSucceeded {
		t.Fatalf("unexpected event %+v", event)
	}

	cases := []struct {
		name     string
		verifier *Verifier
		header   string
	}{
		{"missing secret", NewVerifier(" "), signatureHeader(payload, testSecret, now)},
		{"missing header", NewVerifier(testSecret), ""},
		{"wrong secret", NewVerifier(testSecret), signatureHeader(payload, "whsec_other", now)},
		{"stale timestamp", NewVerifier(testSecret), signatureHeader(payload, testSecret, now-3600)},
		{"garbage header", NewVerifier(testSecret), "t=1,v1=invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.verifier.VerifyWebhookSignature(payload, tc.header)
			if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestTranslateEvent(t *testing.T) {
	refunded := enums.OrderStatusRefunded
	cases := []struct {
		name      string
		eventType stripe.EventType
		object    string
		handled   bool
		want      orders.PaymentUpdate
	}{
		{
			name:      "intent succeeded",
			eventType: stripe.EventTypePaymentIntentSucceeded,
			object:    `{"id":"pi_ok","object":"payment_intent","status":"succeeded"}`,
			handled:   true,
			want:      orders.PaymentUpdate{IntentID: "pi_ok", PaymentStatus: enums.PaymentStatusPaid},
		},
		{
			name:      "intent failed",
			eventType: stripe.EventTypePaymentIntentPaymentFailed,
			object:    `{"id":"pi_bad","object":"payment_intent"}`,
			handled:   true,
			want:      orders.PaymentUpdate{IntentID: "pi_bad", PaymentStatus: enums.PaymentStatusFailed},
		},
		{
			name:      "charge refunded",
			eventType: stripe.EventTypeChargeRefunded,
			object:    `{"id":"ch_1","object":"charge","payment_intent":"pi_refund"}`,
			handled:   true,
			want:      orders.PaymentUpdate{IntentID: "pi_refund", PaymentStatus: enums.PaymentStatusRefunded, OrderStatus: &refunded},
		},
		{
			name:      "charge without intent",
			eventType: stripe.EventTypeChargeRefunded,
			object:    `{"id":"ch_2","object":"charge"}`,
		},
		{
			name:      "unrelated event",
			eventType: stripe.EventTypeCustomerCreated,
			object:    `{"id":"cus_1","object":"customer"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := &stripe.Event{Type: tc.eventType, Data: &stripe.EventData{Raw: json.RawMessage(tc.object)}}
			got, handled, err := TranslateEvent(event)
			if err != nil {
				t.Fatalf("TranslateEvent: %v", err)
			}
			if handled != tc.handled {
				t.Fatalf("expected handled=%v, got %v", tc.handled, handled)
			}
			if !handled {
				return
			}
			if got.IntentID != tc.want.IntentID || got.PaymentStatus != tc.want.PaymentStatus {
				t.Fatalf("unexpected update %+v", got)
			}
			if (got.OrderStatus == nil) != (tc.want.OrderStatus == nil) {
				t.Fatalf("unexpected order status %v", got.OrderStatus)
			}
			if got.OrderStatus != nil && *got.OrderStatus != *tc.want.OrderStatus {
				t.Fatalf("unexpected order status %s", *got.OrderStatus)
			}
		})
	}

	if _, _, err := TranslateEvent(&stripe.Event{Type: stripe.EventTypePaymentIntentSucceeded, Data: &stripe.EventData{Raw: json.RawMessage(`[`)}}); err == nil {
		t.Fatal("expected decode error")
	}
	if _, _, err := TranslateEvent(nil); err == nil {
		t.Fatal("expected error for nil event")
	}
}

func TestHandleEventAppliesUpdate(t *testing.T) {
	updater := &stubUpdater{}
	metrics := &stubMetrics{}
	svc, err := NewService(ServiceParams{Orders: updater, Metrics: metrics})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	event := &stripe.Event{Type: stripe.EventTypePaymentIntentSucceeded, Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"pi_1"}`)}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(updater.updates) != 1 || updater.updates[0].IntentID != "pi_1" {
		t.Fatalf("unexpected updates %+v", updater.updates)
	}

	ignored := &stripe.Event{Type: stripe.EventTypeCustomerCreated, Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}
	if err := svc.HandleEvent(context.Background(), ignored); err != nil {
		t.Fatalf("ignored event should ack, got %v", err)
	}

	updater.err = pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	if err := svc.HandleEvent(context.Background(), event); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found to propagate, got %v", err)
	}

	want := []string{"payment_intent.succeeded/applied", "customer.created/ignored", "payment_intent.succeeded/failed"}
	if len(metrics.outcomes) != len(want) {
		t.Fatalf("unexpected outcomes %v", metrics.outcomes)
	}
	for i := range want {
		if metrics.outcomes[i] != want[i] {
			t.Fatalf("outcome %d: expected %s, got %s", i, want[i], metrics.outcomes[i])
		}
	}
}

func TestEventGuard(t *testing.T) {
	guard, err := NewEventGuard(newInMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewEventGuard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.Seen(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("first delivery should be new, got seen=%v err=%v", seen, err)
	}
	if seen, _ = guard.Seen(ctx, "evt_1"); !seen {
		t.Fatal("expected redelivery to be seen")
	}
	if err := guard.Release(ctx, "evt_1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if seen, _ = guard.Seen(ctx, "evt_1"); seen {
		t.Fatal("expected released event to be processed again")
	}
	if _, err := guard.Seen(ctx, ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
	if _, err := NewEventGuard(nil, time.Hour); err == nil {
		t.Fatal("expected error for missing store")
	}
}

func eventPayload(t *testing.T, id string, eventType stripe.EventType, object string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"data":        map[string]json.RawMessage{"object": json.RawMessage(object)},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func signatureHeader(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type stubUpdater struct {
	updates []orders.PaymentUpdate
	err     error
}

func (s *stubUpdater) ApplyPaymentUpdate(_ context.Context, update orders.PaymentUpdate) (*orders.OrderView, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updates = append(s.updates, update)
	return &orders.OrderView{ID: uuid.New(), OrderNumber: "ORD-1-0001", PaymentStatus: update.PaymentStatus}, nil
}

type stubMetrics struct {
	outcomes []string
}

func (s *stubMetrics) WebhookEvent(eventType, outcome string) {
	s.outcomes = append(s.outcomes, eventType+"/"+outcome)
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("sf:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
