package orders

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is an explicit line in a create-order request.
type ItemInput struct {
	ProductID uuid.UUID      `json:"productId"`
	Quantity  int            `json:"quantity"`
	Variants  types.Variants `json:"variants"`
}

// CreateOrderInput is the checkout request. ExchangeRate only records whether the client
// sent the field; any value, null included, rejects the request.
type CreateOrderInput struct {
	Items           []ItemInput
	ShippingAddress *address.ShippingInput
	PaymentMethod   string
	Currency        enums.Currency
	Notes           *string
	ExchangeRate    json.RawMessage
}

// CreateResult is the checkout response.
type CreateResult struct {
	Success bool       `json:"success"`
	Order   *OrderView `json:"order"`
}

// OrderView is the API shape of an order. Money fields are base currency; Display holds the
// same totals in the order currency.
type OrderView struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       string              `json:"orderNumber"`
	CustomerID        uuid.UUID           `json:"customerId"`
	CustomerEmail     string              `json:"customerEmail,omitempty"`
	Items             types.OrderItems    `json:"items"`
	ShippingAddress   *models.Address     `json:"shippingAddress,omitempty"`
	PaymentMethod     enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus     enums.PaymentStatus `json:"paymentStatus"`
	PaymentIntentID   *string             `json:"paymentIntentId,omitempty"`
	Currency          enums.Currency      `json:"currency"`
	ExchangeRate      float64             `json:"exchangeRate"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	Tax               decimal.Decimal     `json:"tax"`
	Shipping          decimal.Decimal     `json:"shipping"`
	Discount          decimal.Decimal     `json:"discount"`
	Total             decimal.Decimal     `json:"total"`
	Display           pricing.Totals      `json:"display"`
	Status            enums.OrderStatus   `json:"status"`
	TrackingNumber    *string             `json:"trackingNumber,omitempty"`
	Carrier           *string             `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time          `json:"estimatedDelivery,omitempty"`
	CouponCode        *string             `json:"couponCode,omitempty"`
	Notes             *string             `json:"notes,omitempty"`
	RefundAmount      *decimal.Decimal    `json:"refundAmount,omitempty"`
	RefundReason      *string             `json:"refundReason,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

func mapOrderView(o *models.Order) *OrderView {
	return &OrderView{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		CustomerEmail:     o.CustomerEmail,
		Items:             o.Items,
		ShippingAddress:   o.ShippingAddress,
		PaymentMethod:     o.PaymentMethod,
		PaymentStatus:     o.PaymentStatus,
		PaymentIntentID:   o.PaymentIntentID,
		Currency:          o.Currency,
		ExchangeRate:      o.ExchangeRate,
		Subtotal:          o.Subtotal,
		Tax:               o.Tax,
		Shipping:          o.Shipping,
		Discount:          o.Discount,
		Total:             o.Total,
		Display:           displayTotals(o),
		Status:            o.Status,
		TrackingNumber:    o.TrackingNumber,
		Carrier:           o.Carrier,
		EstimatedDelivery: o.EstimatedDelivery,
		CouponCode:        o.CouponCode,
		Notes:             o.Notes,
		RefundAmount:      o.RefundAmount,
		RefundReason:      o.RefundReason,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func displayTotals(o *models.Order) pricing.Totals {
	return pricing.Totals{
		Subtotal: pricing.Convert(o.Subtotal, o.ExchangeRate),
		Tax:      pricing.Convert(o.Tax, o.ExchangeRate),
		Shipping: pricing.Convert(o.Shipping, o.ExchangeRate),
		Discount: pricing.Convert(o.Discount, o.ExchangeRate),
		Total:    pricing.Convert(o.Total, o.ExchangeRate),
	}
}

// ListParams filters the order listing.
type ListParams struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// ListResult is one page of orders.
type ListResult struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// StatusUpdateInput is an admin status change.
type StatusUpdateInput struct {
	Status            enums.OrderStatus
	TrackingNumber    *string
	Carrier           *string
	EstimatedDelivery *time.Time
	Reason            *string
}

// RefundInput is an admin refund. A nil Amount refunds the full total.
type RefundInput struct {
	Amount *decimal.Decimal
	Reason string
}

// TrackingEvent is one synthesized step of the order timeline.
type TrackingEvent struct {
	Status      enums.OrderStatus `json:"status"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	Location    string            `json:"location"`
}

// TrackingSummary is the order header returned with the timeline.
type TrackingSummary struct {
	OrderNumber    string            `json:"orderNumber"`
	Status         enums.OrderStatus `json:"status"`
	TrackingNumber *string           `json:"trackingNumber,omitempty"`
	Carrier        *string           `json:"carrier,omitempty"`
}

type TrackingResult struct {
	Tracking []TrackingEvent `json:"tracking"`
	Order    TrackingSummary `json:"order"`
}

// InvoiceCustomer identifies the buyer on an invoice.
type InvoiceCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Invoice is the printable summary of an order.
type Invoice struct {
	InvoiceNumber   string              `json:"invoiceNumber"`
	OrderNumber     string              `json:"orderNumber"`
	Date            time.Time           `json:"date"`
	Customer        InvoiceCustomer     `json:"customer"`
	ShippingAddress *models.Address     `json:"shippingAddress,omitempty"`
	Items           types.OrderItems    `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Tax             decimal.Decimal     `json:"tax"`
	Shipping        decimal.Decimal     `json:"shipping"`
	Discount        decimal.Decimal     `json:"discount"`
	Total           decimal.Decimal     `json:"total"`
	Currency        enums.Currency      `json:"currency"`
	ExchangeRate    float64             `json:"exchangeRate"`
	Display         pricing.Totals      `json:"display"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	Status          enums.OrderStatus   `json:"status"`
}

// LabelAddress is the ship-to block of a shipping label.
type LabelAddress struct {
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

type ShippingLabel struct {
	OrderNumber    string       `json:"orderNumber"`
	ShipTo         LabelAddress `json:"shipTo"`
	TrackingNumber *string      `json:"trackingNumber,omitempty"`
	Carrier        *string      `json:"carrier,omitempty"`
	ItemCount      int          `json:"itemCount"`
	CreatedAt      time.Time    `json:"createdAt"`
}
