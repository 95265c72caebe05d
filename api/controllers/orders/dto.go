package orders

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type itemRequest struct {
	ProductID uuid.UUID      `json:"productId" validate:"required"`
	Quantity  int            `json:"quantity" validate:"required,min=1"`
	Variants  types.Variants `json:"variants"`
}

// createOrderRequest mirrors the checkout body. ExchangeRate is accepted by the decoder only so
// the service can reject it with a domain message.
type createOrderRequest struct {
	Items           []itemRequest          `json:"items" validate:"omitempty,dive"`
	ShippingAddress *address.ShippingInput `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Currency        string                 `json:"currency"`
	Notes           *string                `json:"notes" validate:"omitempty,max=1000"`
	ExchangeRate    json.RawMessage        `json:"exchangeRate"`
}

func (r createOrderRequest) toInput(currency enums.Currency) internalorders.CreateOrderInput {
	items := make([]internalorders.ItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, internalorders.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Variants:  item.Variants,
		})
	}
	return internalorders.CreateOrderInput{
		Items:           items,
		ShippingAddress: r.ShippingAddress,
		PaymentMethod:   r.PaymentMethod,
		Currency:        currency,
		Notes:           r.Notes,
		ExchangeRate:    r.ExchangeRate,
	}
}

type reasonRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

func (r reasonRequest) trimmed() *string {
	return trimmedPtr(r.Reason)
}

type statusUpdateRequest struct {
	Status            string     `json:"status" validate:"required"`
	TrackingNumber    *string    `json:"trackingNumber"`
	Carrier           *string    `json:"carrier"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	Reason            *string    `json:"reason"`
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" validate:"max=500"`
}
