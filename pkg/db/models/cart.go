package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Cart is the single per-user cart. Only the coupon discount is cached; totals are recomputed on read.
type Cart struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CouponCode     *string          `gorm:"column:coupon_code"`
	CouponDiscount *decimal.Decimal `gorm:"column:coupon_discount;type:numeric(14,4)"`
	Items          []CartItem       `gorm:"foreignKey:CartID;references:ID"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Discount returns the stored coupon discount or zero.
func (c Cart) Discount() decimal.Decimal {
	if c.CouponDiscount == nil {
		return decimal.Zero
	}
	return *c.CouponDiscount
}

// CartItem is one line of a cart. VariantKey is the canonical form of Variants.
type CartItem struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	CartID     uuid.UUID      `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_line"`
	ProductID  uuid.UUID      `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_line"`
	VariantKey string         `gorm:"column:variant_key;not null;default:'{}';uniqueIndex:ux_cart_items_line"`
	Variants   types.Variants `gorm:"column:variants;type:jsonb;serializer:json"`
	Quantity   int            `gorm:"column:quantity;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Variants == nil {
		i.Variants = types.Variants{}
	}
	i.VariantKey = i.Variants.Key()
	return nil
}
