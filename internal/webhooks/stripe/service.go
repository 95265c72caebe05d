package stripewebhook

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

type paymentUpdater interface {
	ApplyPaymentUpdate(ctx context.Context, update orders.PaymentUpdate) (*orders.OrderView, error)
}

type eventMetrics interface {
	WebhookEvent(eventType, outcome string)
}

type ServiceParams struct {
	Orders  paymentUpdater
	Metrics eventMetrics
	Logger  *logger.Logger
}

// Service applies verified Stripe payment events to orders.
type Service struct {
	orders  paymentUpdater
	metrics eventMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	return &Service{orders: params.Orders, metrics: params.Metrics, logg: params.Logger}, nil
}

// HandleEvent applies the event. Unknown intents surface as NotFound so Stripe retries.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	update, ok, err := TranslateEvent(event)
	if err != nil {
		s.record(event, "invalid")
		return err
	}
	if !ok {
		s.record(event, "ignored")
		return nil
	}

	order, err := s.orders.ApplyPaymentUpdate(ctx, update)
	if err != nil {
		s.record(event, "failed")
		return err
	}
	s.record(event, "applied")
	if s.logg != nil {
		ctx = s.logg.WithOrder(ctx, order.ID.String(), order.OrderNumber)
		s.logg.Info(ctx, fmt.Sprintf("stripe %s applied: payment %s", event.Type, order.PaymentStatus))
	}
	return nil
}

func (s *Service) record(event *stripe.Event, outcome string) {
	if s.metrics == nil || event == nil {
		return
	}
	s.metrics.WebhookEvent(string(event.Type), outcome)
}
