package notifications

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier queues order events for the email worker. Each call commits its own
// transaction, after the order change it announces.
type Notifier struct {
	tx     txRunner
	outbox outboxEmitter
}

// NewNotifier wires the outbox writer.
func NewNotifier(tx txRunner, emitter outboxEmitter) (*Notifier, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Notifier{tx: tx, outbox: emitter}, nil
}

// OrderPlaced queues the confirmation email for a committed order.
func (n *Notifier) OrderPlaced(ctx context.Context, actor types.Actor, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order required")
	}
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{Name: item.Name, Quantity: item.Quantity, Price: item.Price})
	}
	customerName := ""
	if order.ShippingAddress != nil {
		customerName = order.ShippingAddress.FullName()
	}
	event := payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		CustomerEmail: order.CustomerEmail,
		CustomerName:  customerName,
		PaymentMethod: order.PaymentMethod,
		Currency:      order.Currency,
		ExchangeRate:  order.ExchangeRate,
		Items:         lines,
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		Shipping:      order.Shipping,
		Discount:      order.Discount,
		Total:         order.Total,
		PlacedAt:      order.CreatedAt,
	}
	return n.emit(ctx, actor, enums.EventOrderCreated, order, event)
}

// OrderStatusChanged queues a status-update email.
func (n *Notifier) OrderStatusChanged(ctx context.Context, actor types.Actor, order *models.Order, previous enums.OrderStatus, reason *string) error {
	if order == nil {
		return fmt.Errorf("order required")
	}
	event := payloads.OrderStatusChangedEvent{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		CustomerEmail:  order.CustomerEmail,
		PreviousStatus: previous,
		Status:         order.Status,
		TrackingNumber: order.TrackingNumber,
		Carrier:        order.Carrier,
		Reason:         reason,
	}
	return n.emit(ctx, actor, enums.EventOrderStatusChanged, order, event)
}

func (n *Notifier) emit(ctx context.Context, actor types.Actor, eventType enums.OutboxEventType, order *models.Order, data any) error {
	return n.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return n.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data:          data,
		})
	})
}
