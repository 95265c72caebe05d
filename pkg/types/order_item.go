package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is the immutable line snapshot stored on an order.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Variants  Variants        `json:"variants"`
}

// LineTotal returns price x quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderItems is persisted as a jsonb array.
type OrderItems []OrderItem

// ProductIDs returns the distinct product ids referenced by the items.
func (items OrderItems) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	out := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		out = append(out, item.ProductID)
	}
	return out
}
