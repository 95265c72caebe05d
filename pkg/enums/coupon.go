package enums

import "fmt"

// DiscountType selects how a coupon's value is applied.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercentage || d == DiscountTypeFixed
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	d := DiscountType(value)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid discount type %q", value)
	}
	return d, nil
}

// CouponStatus toggles whether a coupon can be redeemed.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
)

// IsValid reports whether the value is a known CouponStatus.
func (c CouponStatus) IsValid() bool {
	return c == CouponStatusActive || c == CouponStatusInactive
}

// ParseCouponStatus converts raw input into a CouponStatus.
func ParseCouponStatus(value string) (CouponStatus, error) {
	c := CouponStatus(value)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid coupon status %q", value)
	}
	return c, nil
}
