package stripewebhook

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// Verifier checks the Stripe-Signature header against the endpoint signing secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret), tolerance: webhook.DefaultTolerance}
}

// VerifyWebhookSignature parses the payload into an event. It fails closed: without a
// configured secret every delivery is rejected.
func (v *Verifier) VerifyWebhookSignature(payload []byte, header string) (*stripe.Event, error) {
	if v == nil || v.secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signing secret not configured")
	}
	if strings.TrimSpace(header) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "stripe signature missing")
	}
	event, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid stripe signature")
	}
	return &event, nil
}
