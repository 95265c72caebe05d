package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/validators"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AdminUpdateStatus moves an order along its fulfillment state machine.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		var payload statusUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		return svc.UpdateStatus(r.Context(), call.actor, call.id, internalorders.StatusUpdateInput{
			Status:            status,
			TrackingNumber:    trimmedPtr(payload.TrackingNumber),
			Carrier:           trimmedPtr(payload.Carrier),
			EstimatedDelivery: payload.EstimatedDelivery,
			Reason:            trimmedPtr(payload.Reason),
		})
	})
}

// AdminRefund refunds an order in full or in part.
func AdminRefund(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, call orderCall) (any, error) {
		var payload refundRequest
		if err := decodeOptionalBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Refund(r.Context(), call.actor, call.id, internalorders.RefundInput{
			Amount: payload.Amount,
			Reason: payload.Reason,
		})
	})
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
