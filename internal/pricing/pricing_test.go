package pricing

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustCalc(t *testing.T, fee string) Calculator {
	t.Helper()
	calc, err := NewCalculator(fee)
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return calc
}

func TestForItemsTwoUnits(t *testing.T) {
	calc := mustCalc(t, "10")
	items := types.OrderItems{{
		ProductID: uuid.New(),
		Name:      "Mug",
		Quantity:  2,
		Price:     decimal.RequireFromString("24.99"),
	}}

	totals := calc.ForItems(items, decimal.Zero)
	checks := map[string][2]decimal.Decimal{
		"subtotal": {totals.Subtotal, decimal.RequireFromString("49.98")},
		"tax":      {totals.Tax, decimal.RequireFromString("4.998")},
		"shipping": {totals.Shipping, decimal.NewFromInt(10)},
		"total":    {totals.Total, decimal.RequireFromString("64.978")},
	}
	for name, pair := range checks {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("%s: got %s want %s", name, pair[0], pair[1])
		}
	}
}

func TestComputeEmptySubtotalHasNoShipping(t *testing.T) {
	totals := mustCalc(t, "10").Compute(decimal.Zero, decimal.Zero)
	if !totals.Shipping.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestComputeFixedDiscountMayExceedSubtotal(t *testing.T) {
	totals := mustCalc(t, "10").Compute(decimal.NewFromInt(20), decimal.NewFromInt(50))
	// 20 + 2 + 10 - 50
	if !totals.Total.Equal(decimal.NewFromInt(-18)) {
		t.Fatalf("expected unclamped total -18, got %s", totals.Total)
	}
}

func TestNewCalculatorRejectsBadFee(t *testing.T) {
	if _, err := NewCalculator("ten"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewCalculator("-1"); err == nil {
		t.Fatal("expected negative fee error")
	}
}

func TestConvertRoundsForDisplay(t *testing.T) {
	got := Convert(decimal.RequireFromString("64.978"), 1.0/83.0)
	if !got.Equal(decimal.RequireFromString("0.78")) {
		t.Fatalf("expected 0.78, got %s", got)
	}
}
