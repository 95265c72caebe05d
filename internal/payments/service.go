package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Service validates payment requests before they reach the gateway.
type Service interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency enums.Currency) (*Intent, error)
	ConfirmPayment(ctx context.Context, intentID string) (*Confirmation, error)
	ProcessRefund(ctx context.Context, intentID string, amount *decimal.Decimal, reason *string) (*RefundResult, error)
}

type service struct {
	gateway Gateway
	base    enums.Currency
}

// NewService wires the gateway; currency defaults to base when a request omits it.
func NewService(gateway Gateway, base enums.Currency) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if !base.IsValid() {
		return nil, fmt.Errorf("invalid base currency %q", base)
	}
	return &service{gateway: gateway, base: base}, nil
}

func (s *service) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency enums.Currency) (*Intent, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than 0")
	}
	if currency == "" {
		currency = s.base
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Unsupported currency: %s", currency))
	}
	return s.gateway.CreatePaymentIntent(ctx, amount, currency)
}

func (s *service) ConfirmPayment(ctx context.Context, intentID string) (*Confirmation, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment intent ID is required")
	}
	return s.gateway.ConfirmPayment(ctx, intentID)
}

func (s *service) ProcessRefund(ctx context.Context, intentID string, amount *decimal.Decimal, reason *string) (*RefundResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment intent ID is required")
	}
	if amount != nil && !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Refund amount must be greater than 0")
	}
	return s.gateway.Refund(ctx, intentID, amount, reason)
}
