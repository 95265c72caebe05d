package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the outcome of a successful validation.
type Quote struct {
	Code        string             `json:"code"`
	Type        enums.DiscountType `json:"type"`
	Discount    decimal.Decimal    `json:"discount"`
	CouponID    uuid.UUID          `json:"-"`
	ValidatedAt time.Time          `json:"-"`
}

// Service validates coupons at checkout and manages them for admins.
type Service interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*Quote, error)
	IncrementUsage(ctx context.Context, code string) error

	List(ctx context.Context, filter ListFilter) ([]models.Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, input CouponInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input CouponPatch) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	Status *enums.CouponStatus
	Search string
}

// CouponInput is a validated create payload.
type CouponInput struct {
	Code         string
	Description  string
	DiscountType enums.DiscountType
	Value        decimal.Decimal
	MinPurchase  *decimal.Decimal
	MaxDiscount  *decimal.Decimal
	UsageLimit   *int
	ValidFrom    time.Time
	ValidUntil   time.Time
	Status       enums.CouponStatus
}

// CouponPatch carries optional updates; nil fields are left unchanged.
type CouponPatch struct {
	Code         *string
	Description  *string
	DiscountType *enums.DiscountType
	Value        *decimal.Decimal
	MinPurchase  *decimal.Decimal
	MaxDiscount  *decimal.Decimal
	UsageLimit   *int
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	Status       *enums.CouponStatus
}

type couponStore interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, status *enums.CouponStatus, search string) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Save(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, code string) (bool, error)
}

type service struct {
	repo couponStore
}

func NewService(repo couponStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

// Validate runs the redemption checks in order and returns the discount for subtotal.
func (s *service) Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*Quote, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coupon code is required")
	}
	coupon, err := s.repo.FindActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid coupon code")
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coupon has expired")
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coupon usage limit reached")
	}
	if coupon.MinPurchase != nil && subtotal.LessThan(*coupon.MinPurchase) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Minimum purchase of %s required", coupon.MinPurchase.String()))
	}

	return &Quote{
		Code:        coupon.Code,
		Type:        coupon.DiscountType,
		Discount:    Discount(*coupon, subtotal),
		CouponID:    coupon.ID,
		ValidatedAt: now,
	}, nil
}

// Discount computes the coupon's reduction. Fixed discounts are not capped by the subtotal.
func Discount(coupon models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon.DiscountType == enums.DiscountTypePercentage {
		discount := subtotal.Mul(coupon.Value).Div(hundred)
		if coupon.MaxDiscount != nil && discount.GreaterThan(*coupon.MaxDiscount) {
			return *coupon.MaxDiscount
		}
		return discount
	}
	return coupon.Value
}

func (s *service) IncrementUsage(ctx context.Context, code string) error {
	updated, err := s.repo.IncrementUsage(ctx, code)
	if err != nil {
		return err
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon not found or usage limit reached")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Coupon, error) {
	return s.repo.List(ctx, filter.Status, filter.Search)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	status := input.Status
	if status == "" {
		status = enums.CouponStatusActive
	}
	coupon := &models.Coupon{
		Code:         input.Code,
		Description:  input.Description,
		DiscountType: input.DiscountType,
		Value:        input.Value,
		MinPurchase:  input.MinPurchase,
		MaxDiscount:  input.MaxDiscount,
		UsageLimit:   input.UsageLimit,
		ValidFrom:    input.ValidFrom,
		ValidUntil:   input.ValidUntil,
		Status:       status,
	}
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch CouponPatch) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(coupon, patch)
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func applyPatch(coupon *models.Coupon, patch CouponPatch) {
	if patch.Code != nil {
		coupon.Code = *patch.Code
	}
	if patch.Description != nil {
		coupon.Description = *patch.Description
	}
	if patch.DiscountType != nil {
		coupon.DiscountType = *patch.DiscountType
	}
	if patch.Value != nil {
		coupon.Value = *patch.Value
	}
	if patch.MinPurchase != nil {
		coupon.MinPurchase = patch.MinPurchase
	}
	if patch.MaxDiscount != nil {
		coupon.MaxDiscount = patch.MaxDiscount
	}
	if patch.UsageLimit != nil {
		coupon.UsageLimit = patch.UsageLimit
	}
	if patch.ValidFrom != nil {
		coupon.ValidFrom = *patch.ValidFrom
	}
	if patch.ValidUntil != nil {
		coupon.ValidUntil = *patch.ValidUntil
	}
	if patch.Status != nil {
		coupon.Status = *patch.Status
	}
}

func validateCoupon(coupon *models.Coupon) error {
	if strings.TrimSpace(coupon.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Coupon code is required")
	}
	if !coupon.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Discount type must be percentage or fixed")
	}
	if !coupon.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Status must be active or inactive")
	}
	if !coupon.Value.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Discount value must be greater than 0")
	}
	if coupon.DiscountType == enums.DiscountTypePercentage && coupon.Value.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Percentage value cannot exceed 100")
	}
	if !coupon.ValidFrom.Before(coupon.ValidUntil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Valid until date must be after valid from date")
	}
	if coupon.UsageLimit != nil && *coupon.UsageLimit <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Usage limit must be positive")
	}
	if coupon.UsageLimit != nil && *coupon.UsageLimit < coupon.UsedCount {
		return pkgerrors.New(pkgerrors.CodeValidation, "Usage limit cannot be below the number of times the coupon was used")
	}
	return nil
}
