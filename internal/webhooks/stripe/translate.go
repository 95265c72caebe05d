package stripewebhook

import (
	"encoding/json"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

// TranslateEvent maps a Stripe event onto an order payment update. The bool is false for
// event types that do not touch orders.
func TranslateEvent(event *stripe.Event) (orders.PaymentUpdate, bool, error) {
	if event == nil || event.Data == nil {
		return orders.PaymentUpdate{}, false, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return orders.PaymentUpdate{}, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
		}
		status := enums.PaymentStatusPaid
		if event.Type == stripe.EventTypePaymentIntentPaymentFailed {
			status = enums.PaymentStatusFailed
		}
		return orders.PaymentUpdate{IntentID: intent.ID, PaymentStatus: status}, true, nil

	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return orders.PaymentUpdate{}, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge")
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			return orders.PaymentUpdate{}, false, nil
		}
		refunded := enums.OrderStatusRefunded
		return orders.PaymentUpdate{
			IntentID:      charge.PaymentIntent.ID,
			PaymentStatus: enums.PaymentStatusRefunded,
			OrderStatus:   &refunded,
		}, true, nil
	}
	return orders.PaymentUpdate{}, false, nil
}
