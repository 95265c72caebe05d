package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	orderEmailConsumer = "order-emails"
	adminFanOutLimit   = 4
)

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type processedGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// ConsumerParams groups the email worker dependencies.
type ConsumerParams struct {
	Subscription receiver
	Idempotency  processedGuard
	Decoders     *registry.DecoderRegistry
	Mailer       Mailer
	AdminEmails  []string
	Logger       *logger.Logger
}

// Consumer turns order events into customer and admin emails.
type Consumer struct {
	subscription receiver
	idempotency  processedGuard
	decoders     *registry.DecoderRegistry
	mailer       Mailer
	admins       []string
	logg         *logger.Logger
}

// NewConsumer builds the order email consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := params.Decoders
	if decoders == nil {
		decoders = registry.NewOrderDecoders()
	}
	admins := make([]string, 0, len(params.AdminEmails))
	for _, email := range params.AdminEmails {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			admins = append(admins, trimmed)
		}
	}
	return &Consumer{
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		decoders:     decoders,
		mailer:       params.Mailer,
		admins:       admins,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

// process acks undecodable messages and nacks delivery failures so Pub/Sub redelivers them.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})
	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	version := envelope.Version
	if raw := msg.Attributes["event_version"]; raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			version = parsed
		}
	}
	payload, err := c.decoders.Decode(eventType, version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())
	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderEmailConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(logCtx, payload); err != nil {
		c.logg.Error(logCtx, "order email delivery failed", err)
		if delErr := c.idempotency.Delete(ctx, orderEmailConsumer, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to release idempotency key", delErr)
		}
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, payload any) error {
	switch event := payload.(type) {
	case *payloads.OrderCreatedEvent:
		ctx = c.logg.WithOrder(ctx, event.OrderID.String(), event.OrderNumber)
		return c.orderCreated(ctx, event)
	case *payloads.OrderStatusChangedEvent:
		ctx = c.logg.WithOrder(ctx, event.OrderID.String(), event.OrderNumber)
		return c.statusChanged(ctx, event)
	default:
		c.logg.Info(ctx, "event has no email")
		return nil
	}
}

// orderCreated sends the customer confirmation and the admin notice. A failing admin
// recipient never blocks the others; all recipient errors are combined.
func (c *Consumer) orderCreated(ctx context.Context, event *payloads.OrderCreatedEvent) error {
	var errs error
	if event.CustomerEmail != "" {
		subject, body, err := renderConfirmation(event)
		if err != nil {
			return err
		}
		if err := c.mailer.Send(ctx, event.CustomerEmail, subject, body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("customer %s: %w", event.CustomerEmail, err))
		} else {
			c.logg.Info(ctx, "order confirmation sent")
		}
	}
	if len(c.admins) == 0 {
		return errs
	}

	subject, body, err := renderAdminNotice(event)
	if err != nil {
		return multierr.Append(errs, err)
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(adminFanOutLimit)
	for _, admin := range c.admins {
		g.Go(func() error {
			if err := c.mailer.Send(gctx, admin, subject, body); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("admin %s: %w", admin, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (c *Consumer) statusChanged(ctx context.Context, event *payloads.OrderStatusChangedEvent) error {
	if event.CustomerEmail == "" {
		c.logg.Info(ctx, "order has no customer email")
		return nil
	}
	subject, body, err := renderStatusUpdate(event)
	if err != nil {
		return err
	}
	if err := c.mailer.Send(ctx, event.CustomerEmail, subject, body); err != nil {
		return err
	}
	c.logg.Info(ctx, "order status email sent")
	return nil
}
