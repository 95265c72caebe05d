package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository persists orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// ListFilter scopes a repository listing. A nil CustomerID lists every customer.
type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
	Cursor     *pagination.Cursor
	Limit      int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSource interface {
	CheckoutCart(ctx context.Context, userID uuid.UUID) (*cart.CheckoutCart, error)
	ClearAfterCheckout(ctx context.Context, userID uuid.UUID) error
}

type productLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	SellerOwnsAny(ctx context.Context, sellerID uuid.UUID, productIDs []uuid.UUID) (bool, error)
}

type rateSource interface {
	ExchangeRate(currency enums.Currency) (float64, error)
}

type addressStore interface {
	Create(ctx context.Context, tx *gorm.DB, address *models.Address) error
}

type couponUsage interface {
	IncrementUsage(ctx context.Context, code string) error
}

type orderNotifier interface {
	OrderPlaced(ctx context.Context, actor types.Actor, order *models.Order) error
	OrderStatusChanged(ctx context.Context, actor types.Actor, order *models.Order, previous enums.OrderStatus, reason *string) error
}

type paymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency enums.Currency) (*payments.Intent, error)
	Refund(ctx context.Context, intentID string, amount *decimal.Decimal, reason *string) (*payments.RefundResult, error)
}

type sideEffectRunner interface {
	Do(ctx context.Context, name string, fn func() error)
}

type checkoutMetrics interface {
	OrderCreated(paymentMethod, currency string, took time.Duration)
	CheckoutFailed(reason string)
}
