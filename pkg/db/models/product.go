package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Product is the catalog row read by cart and checkout. Prices are in the base currency.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID  uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Name      string              `gorm:"column:name;not null"`
	Price     decimal.Decimal     `gorm:"column:price;type:numeric(14,4);not null"`
	Inventory int                 `gorm:"column:inventory;not null;default:0"`
	Status    enums.ProductStatus `gorm:"column:status;type:text;not null"`
	Images    pq.StringArray      `gorm:"column:images;type:text[]"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsAvailable reports whether the product can be sold.
func (p Product) IsAvailable() bool {
	return p.Status == enums.ProductStatusApproved
}

// PrimaryImage returns the first image or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
