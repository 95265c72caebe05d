package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

const maxWebhookBody = 64 << 10

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type SignatureVerifier interface {
	VerifyWebhookSignature(payload []byte, header string) (*stripe.Event, error)
}

type StripeWebhookGuard interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// StripeWebhook verifies and applies Stripe payment events. Duplicate deliveries are
// acknowledged without reprocessing.
func StripeWebhook(svc StripeWebhookService, verifier SignatureVerifier, guard StripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := strings.TrimSpace(r.Header.Get("Stripe-Signature"))
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := verifier.VerifyWebhookSignature(payload, sigHeader)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if guard != nil {
			seen, err := guard.Seen(ctx, event.ID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency"))
				return
			}
			if seen {
				if logg != nil {
					logg.Info(logg.WithField(ctx, "stripe_event_id", event.ID), "stripe event already processed")
				}
				responses.WriteSuccess(w, map[string]bool{"received": true})
				return
			}
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if guard != nil {
				_ = guard.Release(ctx, event.ID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
