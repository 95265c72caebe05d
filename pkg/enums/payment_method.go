package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is how the customer intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodStripe         PaymentMethod = "stripe"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

var paymentMethodAliases = map[string]PaymentMethod{
	"card": PaymentMethodStripe,
}

var validPaymentMethods = []PaymentMethod{
	PaymentMethodStripe,
	PaymentMethodPayPal,
	PaymentMethodCashOnDelivery,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod resolves aliases (card -> stripe) and validates the result.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	raw := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := paymentMethodAliases[raw]; ok {
		return alias, nil
	}
	for _, candidate := range validPaymentMethods {
		if string(candidate) == raw {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
