package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberAttempts = 3

// Service assembles orders at checkout and drives their lifecycle afterwards.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreateOrderInput) (*CreateResult, error)
	List(ctx context.Context, actor types.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor types.Actor, id uuid.UUID) (*OrderView, error)
	Cancel(ctx context.Context, actor types.Actor, id uuid.UUID, reason *string) (*OrderView, error)
	RequestReturn(ctx context.Context, actor types.Actor, id uuid.UUID, reason *string) (*OrderView, error)
	UpdateStatus(ctx context.Context, actor types.Actor, id uuid.UUID, input StatusUpdateInput) (*OrderView, error)
	Track(ctx context.Context, actor types.Actor, id uuid.UUID) (*TrackingResult, error)
	Invoice(ctx context.Context, actor types.Actor, id uuid.UUID) (*Invoice, error)
	ShippingLabel(ctx context.Context, actor types.Actor, id uuid.UUID) (*ShippingLabel, error)
	ApplyPaymentUpdate(ctx context.Context, update PaymentUpdate) (*OrderView, error)
	Refund(ctx context.Context, actor types.Actor, id uuid.UUID, input RefundInput) (*OrderView, error)
	AttachPaymentIntent(ctx context.Context, actor types.Actor, id uuid.UUID) (*payments.Intent, error)
}

// PaymentUpdate is a gateway-reported change applied to the order holding IntentID.
// A nil OrderStatus leaves fulfillment alone, except that a paid pending order starts processing.
type PaymentUpdate struct {
	IntentID      string
	PaymentStatus enums.PaymentStatus
	OrderStatus   *enums.OrderStatus
}

// ServiceParams groups the order service collaborators. Sequence and Metrics are optional.
type ServiceParams struct {
	Repository      Repository
	Tx              txRunner
	Carts           cartSource
	Products        productLookup
	Rates           rateSource
	Addresses       addressStore
	Coupons         couponUsage
	Notifier        orderNotifier
	Payments        paymentGateway
	SideEffects     sideEffectRunner
	Sequence        sequenceStore
	Metrics         checkoutMetrics
	Calculator      pricing.Calculator
	BaseCurrency    enums.Currency
	AddressDefaults address.Defaults
	Logger          *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	carts     cartSource
	products  productLookup
	rates     rateSource
	addresses addressStore
	coupons   couponUsage
	notifier  orderNotifier
	payments  paymentGateway
	effects   sideEffectRunner
	metrics   checkoutMetrics
	numbers   *numberGenerator
	calc      pricing.Calculator
	base      enums.Currency
	defaults  address.Defaults
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repository == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart service required")
	case params.Products == nil:
		return nil, fmt.Errorf("product lookup required")
	case params.Rates == nil:
		return nil, fmt.Errorf("currency service required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address store required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupon service required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.SideEffects == nil:
		return nil, fmt.Errorf("side effect runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	base := params.BaseCurrency
	if !base.IsValid() {
		base = enums.CurrencyINR
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &service{
		repo:      params.Repository,
		tx:        params.Tx,
		carts:     params.Carts,
		products:  params.Products,
		rates:     params.Rates,
		addresses: params.Addresses,
		coupons:   params.Coupons,
		notifier:  params.Notifier,
		payments:  params.Payments,
		effects:   params.SideEffects,
		metrics:   metrics,
		numbers: &numberGenerator{
			seq:    params.Sequence,
			orders: params.Repository,
			logg:   params.Logger,
			now:    time.Now,
		},
		calc:     params.Calculator,
		base:     base,
		defaults: params.AddressDefaults,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// checkoutDraft is a validated order that has not been persisted yet.
type checkoutDraft struct {
	order    *models.Order
	address  models.Address
	fromCart bool
}

func (s *service) Create(ctx context.Context, actor types.Actor, input CreateOrderInput) (*CreateResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	started := s.now()

	draft, err := s.draft(ctx, actor, input)
	if err == nil {
		err = s.persist(ctx, draft)
	}
	if err != nil {
		s.metrics.CheckoutFailed(failureReason(err))
		return nil, err
	}
	order := draft.order
	ctx = s.logg.WithOrder(ctx, order.ID.String(), order.OrderNumber)

	if draft.fromCart {
		if err := s.carts.ClearAfterCheckout(ctx, actor.UserID); err != nil {
			s.logg.Error(ctx, "failed to clear cart after checkout", err)
		}
	}
	s.effects.Do(ctx, "order_confirmation", func() error {
		return s.notifier.OrderPlaced(ctx, actor, order)
	})
	if draft.fromCart && order.CouponCode != nil {
		code := *order.CouponCode
		s.effects.Do(ctx, "coupon_usage", func() error {
			return s.coupons.IncrementUsage(ctx, code)
		})
	}

	s.metrics.OrderCreated(string(order.PaymentMethod), string(order.Currency), s.now().Sub(started))
	s.logg.Info(ctx, "order created")
	return &CreateResult{Success: true, Order: mapOrderView(order)}, nil
}

// draft runs every checkout validation without writing anything.
func (s *service) draft(ctx context.Context, actor types.Actor, input CreateOrderInput) (*checkoutDraft, error) {
	lines := input.Items
	discount := decimal.Zero
	var couponCode *string
	fromCart := false

	if len(lines) == 0 {
		snapshot, err := s.carts.CheckoutCart(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if snapshot == nil || len(snapshot.Lines) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
		}
		lines = make([]ItemInput, 0, len(snapshot.Lines))
		for _, line := range snapshot.Lines {
			lines = append(lines, ItemInput{ProductID: line.ProductID, Quantity: line.Quantity, Variants: line.Variants})
		}
		discount = snapshot.Discount
		couponCode = snapshot.CouponCode
		fromCart = true
	}

	items, err := s.snapshotItems(ctx, lines)
	if err != nil {
		return nil, err
	}
	totals := s.calc.ForItems(items, discount)

	shipTo, err := address.SnapshotFromShipping(actor.UserID, input.ShippingAddress, s.defaults)
	if err != nil {
		return nil, err
	}

	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Invalid payment method: %s", input.PaymentMethod))
	}

	if len(input.ExchangeRate) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Exchange rate cannot be set by client. It is calculated server-side based on currency.")
	}
	currency, rate, err := s.resolveCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	return &checkoutDraft{
		order: &models.Order{
			CustomerID:    actor.UserID,
			CustomerEmail: actor.Email,
			Items:         items,
			PaymentMethod: method,
			PaymentStatus: enums.PaymentStatusPending,
			Currency:      currency,
			ExchangeRate:  rate,
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			Shipping:      totals.Shipping,
			Discount:      totals.Discount,
			Total:         totals.Total,
			Status:        enums.OrderStatusPending,
			CouponCode:    couponCode,
			Notes:         input.Notes,
		},
		address:  shipTo,
		fromCart: fromCart,
	}, nil
}

// snapshotItems re-reads every product; any unavailable line aborts the whole order.
func (s *service) snapshotItems(ctx context.Context, lines []ItemInput) (types.OrderItems, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
		}
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make(types.OrderItems, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.IsAvailable() {
			name := "Unknown"
			if ok {
				name = product.Name
			}
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Product %s is not available", name))
		}
		if product.Inventory < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Insufficient inventory for %s", product.Name))
		}
		items = append(items, types.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     product.Price,
			Image:     product.PrimaryImage(),
			Variants:  line.Variants.Normalize(),
		})
	}
	return items, nil
}

func (s *service) resolveCurrency(requested enums.Currency) (enums.Currency, float64, error) {
	currency := enums.Currency(strings.ToUpper(strings.TrimSpace(string(requested))))
	if currency == "" {
		currency = s.base
	}
	if !currency.IsValid() {
		supported := make([]string, 0, len(enums.SupportedCurrencies()))
		for _, c := range enums.SupportedCurrencies() {
			supported = append(supported, string(c))
		}
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Unsupported currency: %s. Supported currencies: %s", currency, strings.Join(supported, ", ")))
	}
	rate, err := s.rates.ExchangeRate(currency)
	if err != nil {
		return "", 0, err
	}
	return currency, rate, nil
}

// persist writes the address and order in one transaction, retrying on an order number clash.
func (s *service) persist(ctx context.Context, draft *checkoutDraft) error {
	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return err
		}
		shipTo := draft.address
		order := *draft.order
		order.OrderNumber = number

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.addresses.Create(ctx, tx, &shipTo); err != nil {
				return err
			}
			order.ShippingAddressID = shipTo.ID
			return s.repo.WithTx(tx).Create(ctx, &order)
		})
		if err == nil {
			order.ShippingAddress = &shipTo
			draft.order = &order
			return nil
		}
		if !db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		lastErr = err
		s.logg.Warn(s.logg.WithField(ctx, "order_number", number), "order number collision, retrying")
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate an order number")
}

func (s *service) List(ctx context.Context, actor types.Actor, params ListParams) (*ListResult, error) {
	filter := ListFilter{Status: params.Status, Limit: params.Limit}
	if !actor.IsAdmin() {
		userID := actor.UserID
		filter.CustomerID = &userID
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		filter.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	views := make([]OrderView, 0, len(rows))
	for i := range rows {
		views = append(views, *mapOrderView(&rows[i]))
	}
	return &ListResult{Orders: views, NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, actor types.Actor, id uuid.UUID) (*OrderView, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return mapOrderView(order), nil
}

// load hides other customers' orders behind NotFound.
func (s *service) load(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(order.CustomerID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	return order, nil
}

// loadForDocuments additionally lets sellers through when they sold an item on the order.
func (s *service) loadForDocuments(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || actor.Owns(order.CustomerID) {
		return order, nil
	}
	if actor.IsSeller() {
		owns, err := s.products.SellerOwnsAny(ctx, actor.UserID, order.Items.ProductIDs())
		if err != nil {
			return nil, err
		}
		if owns {
			return order, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to view this order")
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
}

func (s *service) Cancel(ctx context.Context, actor types.Actor, id uuid.UUID, reason *string) (*OrderView, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot cancel this order")
	}
	return s.transition(ctx, actor, order, enums.OrderStatusCancelled, map[string]any{}, reason)
}

func (s *service) RequestReturn(ctx context.Context, actor types.Actor, id uuid.UUID, reason *string) (*OrderView, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(order.CustomerID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	if order.Status != enums.OrderStatusDelivered && order.Status != enums.OrderStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order is not eligible for return")
	}
	updates := map[string]any{}
	if reason != nil {
		updates["refund_reason"] = *reason
	}
	return s.transition(ctx, actor, order, enums.OrderStatusRefunded, updates, reason)
}

func (s *service) UpdateStatus(ctx context.Context, actor types.Actor, id uuid.UUID, input StatusUpdateInput) (*OrderView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Invalid order status: %s", input.Status))
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != input.Status && !order.Status.CanTransitionTo(input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Cannot change order status from %s to %s", order.Status, input.Status))
	}

	updates := map[string]any{}
	if input.TrackingNumber != nil {
		updates["tracking_number"] = strings.TrimSpace(*input.TrackingNumber)
	}
	if input.Carrier != nil {
		updates["carrier"] = strings.TrimSpace(*input.Carrier)
	}
	if input.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *input.EstimatedDelivery
	}
	return s.transition(ctx, actor, order, input.Status, updates, input.Reason)
}

// transition writes the new status with any extra columns and queues the status email when
// the status actually changed.
func (s *service) transition(ctx context.Context, actor types.Actor, order *models.Order, next enums.OrderStatus, updates map[string]any, reason *string) (*OrderView, error) {
	previous := order.Status
	updates["status"] = next
	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, err
	}
	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if previous != next {
		s.announceStatus(ctx, actor, updated, previous, reason)
	}
	return mapOrderView(updated), nil
}

func (s *service) announceStatus(ctx context.Context, actor types.Actor, order *models.Order, previous enums.OrderStatus, reason *string) {
	ctx = s.logg.WithOrder(ctx, order.ID.String(), order.OrderNumber)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"from": previous, "to": order.Status}), "order status changed")
	s.effects.Do(ctx, "order_status_email", func() error {
		return s.notifier.OrderStatusChanged(ctx, actor, order, previous, reason)
	})
}

func (s *service) Track(ctx context.Context, actor types.Actor, id uuid.UUID) (*TrackingResult, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &TrackingResult{
		Tracking: timeline(order),
		Order: TrackingSummary{
			OrderNumber:    order.OrderNumber,
			Status:         order.Status,
			TrackingNumber: order.TrackingNumber,
			Carrier:        order.Carrier,
		},
	}, nil
}

func (s *service) Invoice(ctx context.Context, actor types.Actor, id uuid.UUID) (*Invoice, error) {
	order, err := s.loadForDocuments(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return buildInvoice(order), nil
}

func (s *service) ShippingLabel(ctx context.Context, actor types.Actor, id uuid.UUID) (*ShippingLabel, error) {
	order, err := s.loadForDocuments(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order has no shipping address")
	}
	return buildShippingLabel(order), nil
}

func (s *service) ApplyPaymentUpdate(ctx context.Context, update PaymentUpdate) (*OrderView, error) {
	if strings.TrimSpace(update.IntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment intent ID is required")
	}
	if !update.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Invalid payment status: %s", update.PaymentStatus))
	}
	order, err := s.repo.FindByPaymentIntent(ctx, update.IntentID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	next := previous
	switch {
	case update.OrderStatus != nil:
		next = *update.OrderStatus
	case update.PaymentStatus == enums.PaymentStatusPaid && previous == enums.OrderStatusPending:
		next = enums.OrderStatusProcessing
	}

	updates := map[string]any{"payment_status": update.PaymentStatus, "status": next}
	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, err
	}
	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if previous != next {
		s.announceStatus(ctx, types.Actor{}, updated, previous, nil)
	}
	return mapOrderView(updated), nil
}

// Refund commits the local refund before calling the gateway; a gateway failure is logged and
// the order stays refunded.
func (s *service) Refund(ctx context.Context, actor types.Actor, id uuid.UUID, input RefundInput) (*OrderView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case enums.OrderStatusDelivered, enums.OrderStatusShipped, enums.OrderStatusProcessing:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order cannot be refunded in its current status")
	}

	amount := order.Total
	if input.Amount != nil {
		amount = *input.Amount
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Refund amount must be greater than 0")
	}
	if amount.GreaterThan(order.Total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Refund amount cannot exceed order total")
	}
	reason := strings.TrimSpace(input.Reason)

	updates := map[string]any{
		"payment_status": enums.PaymentStatusRefunded,
		"refund_amount":  amount,
		"refund_reason":  reason,
	}
	view, err := s.transition(ctx, actor, order, enums.OrderStatusRefunded, updates, &reason)
	if err != nil {
		return nil, err
	}

	if order.PaymentIntentID != nil && *order.PaymentIntentID != "" {
		ctx = s.logg.WithOrder(ctx, order.ID.String(), order.OrderNumber)
		if _, err := s.payments.Refund(ctx, *order.PaymentIntentID, &amount, &reason); err != nil {
			s.logg.Error(ctx, "gateway refund failed; order remains refunded", err)
		}
	}
	return view, nil
}

func (s *service) AttachPaymentIntent(ctx context.Context, actor types.Actor, id uuid.UUID) (*payments.Intent, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(order.CustomerID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order is not awaiting payment")
	}
	if order.PaymentMethod != enums.PaymentMethodStripe {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment intents are only available for card payments")
	}

	amount := pricing.Convert(order.Total, order.ExchangeRate)
	intent, err := s.payments.CreatePaymentIntent(ctx, amount, order.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order.ID, map[string]any{"payment_intent_id": intent.IntentID}); err != nil {
		return nil, err
	}
	return intent, nil
}

func failureReason(err error) string {
	return strings.ToLower(string(pkgerrors.As(err).Code()))
}

type noopMetrics struct{}

func (noopMetrics) OrderCreated(string, string, time.Duration) {}
func (noopMetrics) CheckoutFailed(string)                      {}
