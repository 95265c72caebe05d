package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon codes are stored uppercase so lookups are case-insensitive.
type Coupon struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code         string             `gorm:"column:code;not null;uniqueIndex"`
	Description  string             `gorm:"column:description"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Value        decimal.Decimal    `gorm:"column:value;type:numeric(14,4);not null"`
	MinPurchase  *decimal.Decimal   `gorm:"column:min_purchase;type:numeric(14,4)"`
	MaxDiscount  *decimal.Decimal   `gorm:"column:max_discount;type:numeric(14,4)"`
	UsageLimit   *int               `gorm:"column:usage_limit"`
	UsedCount    int                `gorm:"column:used_count;not null;default:0"`
	ValidFrom    time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil   time.Time          `gorm:"column:valid_until;not null"`
	Status       enums.CouponStatus `gorm:"column:status;type:text;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
