package cart

import (
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemView is one cart line with base and display prices.
type ItemView struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"productId"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Quantity     int             `json:"quantity"`
	Variants     types.Variants  `json:"variants"`
	Price        decimal.Decimal `json:"price"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	DisplayPrice decimal.Decimal `json:"displayPrice"`
	DisplayTotal decimal.Decimal `json:"displayLineTotal"`
	Available    bool            `json:"available"`
}

// CouponView describes the applied coupon in display currency.
type CouponView struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Type     string          `json:"type,omitempty"`
}

// CartView is the recomputed cart. Totals are in the base currency; Display holds the
// converted amounts for the requested currency.
type CartView struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"userId"`
	Items        []ItemView     `json:"items"`
	Currency     enums.Currency `json:"currency"`
	ExchangeRate float64        `json:"exchangeRate"`
	Totals       pricing.Totals `json:"totals"`
	Display      pricing.Totals `json:"display"`
	Coupon       *CouponView    `json:"coupon,omitempty"`
}

// CouponResult is returned by ApplyCoupon.
type CouponResult struct {
	Coupon CouponView `json:"coupon"`
	Cart   *CartView  `json:"cart"`
}

func convertTotals(t pricing.Totals, rate float64) pricing.Totals {
	return pricing.Totals{
		Subtotal: pricing.Convert(t.Subtotal, rate),
		Tax:      pricing.Convert(t.Tax, rate),
		Shipping: pricing.Convert(t.Shipping, rate),
		Discount: pricing.Convert(t.Discount, rate),
		Total:    pricing.Convert(t.Total, rate),
	}
}

// buildView prices lines from current product rows. Lines whose product vanished are shown
// as unavailable and excluded from the subtotal.
func buildView(cart *models.Cart, products map[uuid.UUID]models.Product, calc pricing.Calculator, currency enums.Currency, rate float64) *CartView {
	items := make([]ItemView, 0, len(cart.Items))
	subtotal := decimal.Zero
	for _, line := range cart.Items {
		view := ItemView{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Variants:  line.Variants,
		}
		if product, ok := products[line.ProductID]; ok {
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			view.Name = product.Name
			view.Image = product.PrimaryImage()
			view.Price = product.Price
			view.LineTotal = lineTotal
			view.DisplayPrice = pricing.Convert(product.Price, rate)
			view.DisplayTotal = pricing.Convert(lineTotal, rate)
			view.Available = product.IsAvailable()
			subtotal = subtotal.Add(lineTotal)
		}
		if view.Variants == nil {
			view.Variants = types.Variants{}
		}
		items = append(items, view)
	}

	totals := calc.Compute(subtotal, cart.Discount())
	out := &CartView{
		ID:           cart.ID,
		UserID:       cart.UserID,
		Items:        items,
		Currency:     currency,
		ExchangeRate: rate,
		Totals:       totals,
		Display:      convertTotals(totals, rate),
	}
	if cart.CouponCode != nil && cart.CouponDiscount != nil {
		out.Coupon = &CouponView{
			Code:     *cart.CouponCode,
			Discount: pricing.Convert(*cart.CouponDiscount, rate),
		}
	}
	return out
}
