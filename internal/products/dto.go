package product

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the public product shape with the price shown in the request currency.
type ProductDTO struct {
	ID             uuid.UUID           `json:"id"`
	SellerID       uuid.UUID           `json:"sellerId"`
	Name           string              `json:"name"`
	Price          decimal.Decimal     `json:"price"`
	ConvertedPrice decimal.Decimal     `json:"convertedPrice"`
	Currency       enums.Currency      `json:"currency"`
	ExchangeRate   float64             `json:"exchangeRate"`
	Inventory      int                 `json:"inventory"`
	Status         enums.ProductStatus `json:"status"`
	Images         []string            `json:"images"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func mapProductDTO(p models.Product, currency enums.Currency, rate float64, converted decimal.Decimal) *ProductDTO {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return &ProductDTO{
		ID:             p.ID,
		SellerID:       p.SellerID,
		Name:           p.Name,
		Price:          p.Price,
		ConvertedPrice: converted,
		Currency:       currency,
		ExchangeRate:   rate,
		Inventory:      p.Inventory,
		Status:         p.Status,
		Images:         images,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
