package coupons

import (
	"time"

	couponsvc "github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID           uuid.UUID          `json:"id"`
	Code         string             `json:"code"`
	Description  string             `json:"description"`
	DiscountType enums.DiscountType `json:"discountType"`
	Value        decimal.Decimal    `json:"value"`
	MinPurchase  *decimal.Decimal   `json:"minPurchase,omitempty"`
	MaxDiscount  *decimal.Decimal   `json:"maxDiscount,omitempty"`
	UsageLimit   *int               `json:"usageLimit,omitempty"`
	UsedCount    int                `json:"usedCount"`
	ValidFrom    time.Time          `json:"validFrom"`
	ValidUntil   time.Time          `json:"validUntil"`
	Status       enums.CouponStatus `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func newCoupon(c *models.Coupon) Coupon {
	return Coupon{
		ID:           c.ID,
		Code:         c.Code,
		Description:  c.Description,
		DiscountType: c.DiscountType,
		Value:        c.Value,
		MinPurchase:  c.MinPurchase,
		MaxDiscount:  c.MaxDiscount,
		UsageLimit:   c.UsageLimit,
		UsedCount:    c.UsedCount,
		ValidFrom:    c.ValidFrom,
		ValidUntil:   c.ValidUntil,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type createCouponRequest struct {
	Code         string           `json:"code" validate:"required,max=64"`
	Description  string           `json:"description" validate:"max=500"`
	DiscountType string           `json:"discountType" validate:"required,oneof=percentage fixed"`
	Value        decimal.Decimal  `json:"value"`
	MinPurchase  *decimal.Decimal `json:"minPurchase"`
	MaxDiscount  *decimal.Decimal `json:"maxDiscount"`
	UsageLimit   *int             `json:"usageLimit" validate:"omitempty,min=1"`
	ValidFrom    time.Time        `json:"validFrom" validate:"required"`
	ValidUntil   time.Time        `json:"validUntil" validate:"required"`
	Status       string           `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r createCouponRequest) toInput() couponsvc.CouponInput {
	return couponsvc.CouponInput{
		Code:         r.Code,
		Description:  r.Description,
		DiscountType: enums.DiscountType(r.DiscountType),
		Value:        r.Value,
		MinPurchase:  r.MinPurchase,
		MaxDiscount:  r.MaxDiscount,
		UsageLimit:   r.UsageLimit,
		ValidFrom:    r.ValidFrom,
		ValidUntil:   r.ValidUntil,
		Status:       enums.CouponStatus(r.Status),
	}
}

type updateCouponRequest struct {
	Code         *string          `json:"code" validate:"omitempty,min=1,max=64"`
	Description  *string          `json:"description" validate:"omitempty,max=500"`
	DiscountType *string          `json:"discountType"`
	Value        *decimal.Decimal `json:"value"`
	MinPurchase  *decimal.Decimal `json:"minPurchase"`
	MaxDiscount  *decimal.Decimal `json:"maxDiscount"`
	UsageLimit   *int             `json:"usageLimit" validate:"omitempty,min=1"`
	ValidFrom    *time.Time       `json:"validFrom"`
	ValidUntil   *time.Time       `json:"validUntil"`
	Status       *string          `json:"status"`
}

func (r updateCouponRequest) toPatch() (couponsvc.CouponPatch, error) {
	patch := couponsvc.CouponPatch{
		Code:        r.Code,
		Description: r.Description,
		Value:       r.Value,
		MinPurchase: r.MinPurchase,
		MaxDiscount: r.MaxDiscount,
		UsageLimit:  r.UsageLimit,
		ValidFrom:   r.ValidFrom,
		ValidUntil:  r.ValidUntil,
	}
	if r.DiscountType != nil {
		dt, err := enums.ParseDiscountType(*r.DiscountType)
		if err != nil {
			return patch, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
		}
		patch.DiscountType = &dt
	}
	if r.Status != nil {
		status, err := enums.ParseCouponStatus(*r.Status)
		if err != nil {
			return patch, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon status")
		}
		patch.Status = &status
	}
	return patch, nil
}
