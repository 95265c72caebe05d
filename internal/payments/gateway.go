// Package payments adapts the card gateway behind a small interface with a
// placeholder fallback for environments without Stripe credentials.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
)

// Intent is a created payment intent.
type Intent struct {
	ClientSecret string          `json:"clientSecret"`
	IntentID     string          `json:"intentId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     enums.Currency  `json:"currency"`
	Placeholder  bool            `json:"placeholder,omitempty"`
}

// Confirmation reports a completed payment.
type Confirmation struct {
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// RefundResult reports the refund the gateway created.
type RefundResult struct {
	RefundID string          `json:"refundId"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
}

// Gateway is the payment provider surface used by checkout and admin refunds.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency enums.Currency) (*Intent, error)
	ConfirmPayment(ctx context.Context, intentID string) (*Confirmation, error)
	Refund(ctx context.Context, intentID string, amount *decimal.Decimal, reason *string) (*RefundResult, error)
}

type stripeAPI interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
}

// NewGateway returns the Stripe gateway, or the placeholder when client is nil.
func NewGateway(client *pkgstripe.Client) Gateway {
	if client == nil {
		return NewPlaceholderGateway()
	}
	return &stripeGateway{api: client}
}

type stripeGateway struct {
	api stripeAPI
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency enums.Currency) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(pkgstripe.ToMinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(string(currency))),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	intent, err := g.api.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, gatewayError(err, "Failed to create payment intent")
	}
	return &Intent{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (g *stripeGateway) ConfirmPayment(ctx context.Context, intentID string) (*Confirmation, error) {
	intent, err := g.api.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, gatewayError(err, "Failed to confirm payment")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Payment not completed. Status: %s", intent.Status))
	}
	return &Confirmation{
		Status:   string(intent.Status),
		Amount:   pkgstripe.FromMinorUnits(intent.Amount),
		Currency: strings.ToUpper(string(intent.Currency)),
	}, nil
}

func (g *stripeGateway) Refund(ctx context.Context, intentID string, amount *decimal.Decimal, reason *string) (*RefundResult, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	if amount != nil {
		params.Amount = stripe.Int64(pkgstripe.ToMinorUnits(*amount))
	}
	if reason != nil && *reason != "" {
		if isStripeRefundReason(*reason) {
			params.Reason = stripe.String(*reason)
		} else {
			params.AddMetadata("reason", *reason)
		}
	}
	refund, err := g.api.CreateRefund(ctx, params)
	if err != nil {
		return nil, gatewayError(err, "Failed to process refund")
	}
	return &RefundResult{
		RefundID: refund.ID,
		Status:   string(refund.Status),
		Amount:   pkgstripe.FromMinorUnits(refund.Amount),
	}, nil
}

func isStripeRefundReason(reason string) bool {
	switch stripe.RefundReason(reason) {
	case stripe.RefundReasonDuplicate, stripe.RefundReasonFraudulent, stripe.RefundReasonRequestedByCustomer:
		return true
	}
	return false
}

func gatewayError(err error, prefix string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("%s: %s", prefix, pkgstripe.ErrorMessage(err)))
}

type placeholderGateway struct {
	now func() time.Time
}

// NewPlaceholderGateway returns structurally valid fake responses.
func NewPlaceholderGateway() Gateway {
	return &placeholderGateway{now: time.Now}
}

func (g *placeholderGateway) CreatePaymentIntent(_ context.Context, amount decimal.Decimal, currency enums.Currency) (*Intent, error) {
	ms := g.now().UnixMilli()
	return &Intent{
		ClientSecret: fmt.Sprintf("placeholder_secret_%d", ms),
		IntentID:     fmt.Sprintf("pi_placeholder_%d", ms),
		Amount:       amount,
		Currency:     currency,
		Placeholder:  true,
	}, nil
}

func (g *placeholderGateway) ConfirmPayment(context.Context, string) (*Confirmation, error) {
	return &Confirmation{Status: string(stripe.PaymentIntentStatusSucceeded)}, nil
}

func (g *placeholderGateway) Refund(_ context.Context, _ string, amount *decimal.Decimal, _ *string) (*RefundResult, error) {
	result := &RefundResult{
		RefundID: fmt.Sprintf("re_placeholder_%d", g.now().UnixMilli()),
		Status:   string(stripe.RefundStatusSucceeded),
	}
	if amount != nil {
		result.Amount = *amount
	}
	return result, nil
}
