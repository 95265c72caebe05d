package payments

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	paymentsvc "github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type orderIntents interface {
	AttachPaymentIntent(ctx context.Context, actor types.Actor, id uuid.UUID) (*paymentsvc.Intent, error)
}

type createIntentRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`
	OrderID  *uuid.UUID       `json:"orderId"`
}

type confirmRequest struct {
	PaymentID string `json:"paymentId" validate:"required"`
}

// CreateIntent opens a card payment. With orderId the amount comes from the stored order;
// otherwise the caller supplies amount and an optional currency.
func CreateIntent(svc paymentsvc.Service, orders orderIntents, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		actor, err := controllers.RequireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.OrderID != nil {
			if orders == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
				return
			}
			intent, err := orders.AttachPaymentIntent(r.Context(), actor, *payload.OrderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, intent)
			return
		}

		if payload.Amount == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than 0"))
			return
		}
		currency := enums.Currency(strings.ToUpper(strings.TrimSpace(payload.Currency)))
		if currency == "" {
			currency = middleware.CurrencyFromContext(r.Context())
		}

		intent, err := svc.CreatePaymentIntent(r.Context(), *payload.Amount, currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, intent)
	}
}

func Confirm(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		if _, err := controllers.RequireActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmation, err := svc.ConfirmPayment(r.Context(), payload.PaymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmation)
	}
}
