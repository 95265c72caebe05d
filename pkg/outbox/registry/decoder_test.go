package registry

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderStatusChanged, 2, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	output, err := reg.Decode(enums.EventOrderStatusChanged, 2, json.RawMessage(`{"status":"shipped"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["status"] != "shipped" {
		t.Fatalf("unexpected output %+v", output)
	}
	if _, err := reg.Decode(enums.EventOrderStatusChanged, 1, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unregistered version")
	}
}

func TestOrderDecoders(t *testing.T) {
	reg := NewOrderDecoders()
	out, err := reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`{"orderNumber":"ORD-1-0001","customerEmail":"a@example.com"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	created, ok := out.(*payloads.OrderCreatedEvent)
	if !ok || created.OrderNumber != "ORD-1-0001" || created.CustomerEmail != "a@example.com" {
		t.Fatalf("unexpected payload %+v", out)
	}
	if _, err := reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`{"orderNumber":`)); err == nil {
		t.Fatal("expected decode error for malformed payload")
	}
}
