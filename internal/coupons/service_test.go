package coupons

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func welcome10(now time.Time) CouponInput {
	return CouponInput{
		Code:         "welcome10",
		DiscountType: enums.DiscountTypePercentage,
		Value:        decimal.NewFromInt(10),
		MinPurchase:  decPtr("50"),
		MaxDiscount:  decPtr("20"),
		ValidFrom:    now.Add(-24 * time.Hour),
		ValidUntil:   now.Add(24 * time.Hour),
	}
}

func TestValidateBelowMinimumPurchase(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now()
	if _, err := svc.Create(context.Background(), welcome10(now)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Validate(context.Background(), "WELCOME10", decimal.RequireFromString("49.98"), now)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Minimum purchase of 50 required") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestValidatePercentageCappedByMax(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now()
	if _, err := svc.Create(context.Background(), welcome10(now)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	quote, err := svc.Validate(context.Background(), "welcome10", decimal.NewFromInt(100), now)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected discount 10, got %s", quote.Discount)
	}

	quote, err = svc.Validate(context.Background(), "WELCOME10", decimal.NewFromInt(500), now)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected discount capped at 20, got %s", quote.Discount)
	}
}

func TestValidateFailureOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	expired := welcome10(now)
	expired.Code = "OLD"
	expired.ValidFrom = now.Add(-48 * time.Hour)
	expired.ValidUntil = now.Add(-24 * time.Hour)
	if _, err := svc.Create(ctx, expired); err != nil {
		t.Fatalf("Create expired: %v", err)
	}

	used := welcome10(now)
	used.Code = "USEDUP"
	used.UsageLimit = intPtr(1)
	if _, err := svc.Create(ctx, used); err != nil {
		t.Fatalf("Create used: %v", err)
	}
	if err := svc.IncrementUsage(ctx, "usedup"); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}

	inactive := welcome10(now)
	inactive.Code = "OFF"
	inactive.Status = enums.CouponStatusInactive
	if _, err := svc.Create(ctx, inactive); err != nil {
		t.Fatalf("Create inactive: %v", err)
	}

	cases := map[string]string{
		"":       "Coupon code is required",
		"NOPE":   "Invalid coupon code",
		"OFF":    "Invalid coupon code",
		"OLD":    "Coupon has expired",
		"USEDUP": "Coupon usage limit reached",
	}
	for code, want := range cases {
		_, err := svc.Validate(ctx, code, decimal.NewFromInt(100), now)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("code %q: expected %q, got %v", code, want, err)
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("code %q: expected validation code, got %v", code, err)
		}
	}
}

func TestFixedDiscountMayExceedSubtotal(t *testing.T) {
	coupon := models.Coupon{DiscountType: enums.DiscountTypeFixed, Value: decimal.NewFromInt(50)}
	if got := Discount(coupon, decimal.NewFromInt(20)); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected fixed discount 50, got %s", got)
	}
}

func TestCreateValidatesInvariants(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	tooMuch := welcome10(now)
	tooMuch.Value = decimal.NewFromInt(150)
	if _, err := svc.Create(ctx, tooMuch); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected percentage cap error, got %v", err)
	}

	backwards := welcome10(now)
	backwards.ValidFrom, backwards.ValidUntil = backwards.ValidUntil, backwards.ValidFrom
	if _, err := svc.Create(ctx, backwards); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected window error, got %v", err)
	}

	if _, err := svc.Create(ctx, welcome10(now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, welcome10(now)); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected duplicate conflict, got %v", err)
	}
}

func TestUpdateRechecksInvariants(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()
	created, err := svc.Create(ctx, welcome10(now))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	past := now.Add(-72 * time.Hour)
	if _, err := svc.Update(ctx, created.ID, CouponPatch{ValidUntil: &past}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected window error, got %v", err)
	}

	code := "welcome20"
	value := decimal.NewFromInt(20)
	updated, err := svc.Update(ctx, created.ID, CouponPatch{Code: &code, Value: &value})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Code != "WELCOME20" || !updated.Value.Equal(value) {
		t.Fatalf("unexpected coupon %+v", updated)
	}
}

func TestIncrementUsageRespectsLimit(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	input := welcome10(time.Now())
	input.UsageLimit = intPtr(2)
	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.IncrementUsage(ctx, "welcome10"); err != nil {
			t.Fatalf("IncrementUsage %d: %v", i, err)
		}
	}
	if err := svc.IncrementUsage(ctx, "WELCOME10"); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected limit conflict, got %v", err)
	}

	reloaded, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.UsedCount != 2 {
		t.Fatalf("expected used_count 2, got %d", reloaded.UsedCount)
	}
}

func TestUpdateCannotDropLimitBelowUsage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	input := welcome10(time.Now())
	input.UsageLimit = intPtr(5)
	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.IncrementUsage(ctx, "welcome10"); err != nil {
			t.Fatalf("IncrementUsage %d: %v", i, err)
		}
	}

	if _, err := svc.Update(ctx, created.ID, CouponPatch{UsageLimit: intPtr(1)}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	updated, err := svc.Update(ctx, created.ID, CouponPatch{UsageLimit: intPtr(3)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UsedCount != 3 || *updated.UsageLimit != 3 {
		t.Fatalf("unexpected coupon %+v", updated)
	}
}

func TestSaveKeepsConcurrentRedemptions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	input := welcome10(time.Now())
	input.UsageLimit = intPtr(5)
	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stale, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.IncrementUsage(ctx, "welcome10"); err != nil {
			t.Fatalf("IncrementUsage %d: %v", i, err)
		}
	}
	stale.Description = "edited while redeemed"
	if err := repo.Save(ctx, stale); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.UsedCount != 2 || reloaded.Description != "edited while redeemed" {
		t.Fatalf("expected edit applied without losing redemptions, got %+v", reloaded)
	}

	stale.UsageLimit = intPtr(1)
	if err := repo.Save(ctx, stale); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected guarded limit rejection, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()
	first, err := svc.Create(ctx, welcome10(now))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other := welcome10(now)
	other.Code = "SUMMER"
	other.Status = enums.CouponStatusInactive
	if _, err := svc.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	active := enums.CouponStatusActive
	rows, err := svc.List(ctx, ListFilter{Status: &active})
	if err != nil || len(rows) != 1 || rows[0].Code != "WELCOME10" {
		t.Fatalf("unexpected active list %v err=%v", rows, err)
	}
	rows, err = svc.List(ctx, ListFilter{Search: "sum"})
	if err != nil || len(rows) != 1 || rows[0].Code != "SUMMER" {
		t.Fatalf("unexpected search list %v err=%v", rows, err)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, first.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
