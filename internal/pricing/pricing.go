// Package pricing holds the totals math shared by the cart and order flows.
package pricing

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
)

var taxRate = decimal.RequireFromString("0.10")

// Totals are always expressed in the base currency.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Calculator applies the flat shipping fee and tax rate.
type Calculator struct {
	shippingFee decimal.Decimal
}

// NewCalculator parses the configured shipping fee.
func NewCalculator(shippingFee string) (Calculator, error) {
	fee, err := decimal.NewFromString(shippingFee)
	if err != nil {
		return Calculator{}, fmt.Errorf("parse shipping fee %q: %w", shippingFee, err)
	}
	if fee.IsNegative() {
		return Calculator{}, fmt.Errorf("shipping fee must not be negative")
	}
	return Calculator{shippingFee: fee}, nil
}

// ShippingFee returns the configured flat fee.
func (c Calculator) ShippingFee() decimal.Decimal {
	return c.shippingFee
}

// Compute derives totals from a subtotal and discount. The total is not clamped at zero.
func (c Calculator) Compute(subtotal, discount decimal.Decimal) Totals {
	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = c.shippingFee
	}
	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}

// ForItems sums price×quantity across the snapshot and computes totals.
func (c Calculator) ForItems(items types.OrderItems, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return c.Compute(subtotal, discount)
}

// Display rounds an amount to two decimal places for presentation.
func Display(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Convert applies a float exchange rate to a base amount and rounds for display.
func Convert(amount decimal.Decimal, rate float64) decimal.Decimal {
	return Display(amount.Mul(decimal.NewFromFloat(rate)))
}
