package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// Create places an order from explicit items or the caller's cart. A currency sent via
// header or query wins over the body field.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := controllers.RequireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency, explicit := middleware.RequestedCurrency(r.Context())
		if !explicit {
			currency = enums.Currency(strings.TrimSpace(payload.Currency))
		}

		result, err := svc.Create(r.Context(), actor, payload.toInput(currency))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// List pages through the caller's orders; admins see every customer.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := controllers.RequireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internalorders.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		list, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		return svc.Get(r.Context(), call.actor, call.id)
	})
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		var payload reasonRequest
		if err := decodeOptionalBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Cancel(r.Context(), call.actor, call.id, payload.trimmed())
	})
}

func RequestReturn(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		var payload reasonRequest
		if err := decodeOptionalBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.RequestReturn(r.Context(), call.actor, call.id, payload.trimmed())
	})
}

func Track(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		return svc.Track(r.Context(), call.actor, call.id)
	})
}

func Invoice(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		return svc.Invoice(r.Context(), call.actor, call.id)
	})
}

func ShippingLabel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		return svc.ShippingLabel(r.Context(), call.actor, call.id)
	})
}

type orderCall struct {
	actor types.Actor
	id    uuid.UUID
}

// withOrder resolves the caller and the {orderId} path parameter before running fn.
func withOrder(svc internalorders.Service, logg *logger.Logger, fn func(r *http.Request, call orderCall) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := controllers.RequireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := controllers.UUIDParam(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		data, err := fn(r, orderCall{actor: actor, id: id})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}

// decodeOptionalBody accepts an empty body for endpoints whose fields are all optional.
func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}
