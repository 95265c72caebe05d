package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// Decoder turns an envelope's data into a typed payload.
type Decoder func(payload json.RawMessage) (interface{}, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]Decoder
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]Decoder)}
}

// NewOrderDecoders registers the v1 decoders for both order events.
func NewOrderDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderCreated, 1, jsonDecoder(func() interface{} { return &payloads.OrderCreatedEvent{} }))
	reg.Register(enums.EventOrderStatusChanged, 1, jsonDecoder(func() interface{} { return &payloads.OrderStatusChangedEvent{} }))
	return reg
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decoder(payload)
}

func jsonDecoder(factory func() interface{}) Decoder {
	return func(payload json.RawMessage) (interface{}, error) {
		out := factory()
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
