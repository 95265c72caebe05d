package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the checkout snapshot. Money columns are in the base currency; Currency and
// ExchangeRate record what the customer was quoted in.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber       string              `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID        uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerEmail     string              `gorm:"column:customer_email"`
	Items             types.OrderItems    `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ShippingAddressID uuid.UUID           `gorm:"column:shipping_address_id;type:uuid;not null"`
	ShippingAddress   *Address            `gorm:"foreignKey:ShippingAddressID;references:ID"`
	BillingAddressID  *uuid.UUID          `gorm:"column:billing_address_id;type:uuid"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id;index"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null"`
	ExchangeRate      float64             `gorm:"column:exchange_rate;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(14,4);not null"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(14,4);not null"`
	Shipping          decimal.Decimal     `gorm:"column:shipping;type:numeric(14,4);not null"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(14,4);not null"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(14,4);not null"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;index"`
	TrackingNumber    *string             `gorm:"column:tracking_number"`
	Carrier           *string             `gorm:"column:carrier"`
	EstimatedDelivery *time.Time          `gorm:"column:estimated_delivery"`
	CouponCode        *string             `gorm:"column:coupon_code"`
	Notes             *string             `gorm:"column:notes"`
	RefundAmount      *decimal.Decimal    `gorm:"column:refund_amount;type:numeric(14,4)"`
	RefundReason      *string             `gorm:"column:refund_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
