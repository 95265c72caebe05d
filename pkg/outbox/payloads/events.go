package payloads

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is the slice of an order item a confirmation email needs.
type OrderLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderCreatedEvent is emitted once an order has been committed.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	CustomerID    uuid.UUID           `json:"customerId"`
	CustomerEmail string              `json:"customerEmail"`
	CustomerName  string              `json:"customerName"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Currency      enums.Currency      `json:"currency"`
	ExchangeRate  float64             `json:"exchangeRate"`
	Items         []OrderLine         `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Tax           decimal.Decimal     `json:"tax"`
	Shipping      decimal.Decimal     `json:"shipping"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	PlacedAt      time.Time           `json:"placedAt"`
}

// OrderStatusChangedEvent is emitted for cancellations, returns, refunds and admin updates.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	CustomerID     uuid.UUID         `json:"customerId"`
	CustomerEmail  string            `json:"customerEmail"`
	PreviousStatus enums.OrderStatus `json:"previousStatus"`
	Status         enums.OrderStatus `json:"status"`
	TrackingNumber *string           `json:"trackingNumber,omitempty"`
	Carrier        *string           `json:"carrier,omitempty"`
	Reason         *string           `json:"reason,omitempty"`
}
