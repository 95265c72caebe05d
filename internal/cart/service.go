package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes the per-user cart aggregate.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput, currency enums.Currency) (*CartView, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int, currency enums.Currency) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID, currency enums.Currency) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string, currency enums.Currency) (*CouponResult, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*CartView, error)

	CheckoutCart(ctx context.Context, userID uuid.UUID) (*CheckoutCart, error)
	ClearAfterCheckout(ctx context.Context, userID uuid.UUID) error
}

// AddItemInput is a validated add-to-cart request.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Variants  types.Variants
}

// CheckoutLine is a cart line handed to order assembly.
type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
	Variants  types.Variants
}

// CheckoutCart is the cart as read at order time.
type CheckoutCart struct {
	CartID     uuid.UUID
	Lines      []CheckoutLine
	CouponCode *string
	Discount   decimal.Decimal
}

type service struct {
	repo     CartRepository
	products productLookup
	coupons  couponValidator
	rates    rateSource
	calc     pricing.Calculator
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLookup, coupons couponValidator, rates rateSource, calc pricing.Calculator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if rates == nil {
		return nil, fmt.Errorf("currency service required")
	}
	return &service{
		repo:     repo,
		products: products,
		coupons:  coupons,
		rates:    rates,
		calc:     calc,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*CartView, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart, currency)
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput, currency enums.Currency) (*CartView, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
	}
	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}
	if product == nil || !product.IsAvailable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product not available")
	}
	if product.Inventory < input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Insufficient inventory")
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	variants := input.Variants.Normalize()
	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Variants:  variants,
		Quantity:  input.Quantity,
	}
	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return nil, err
	}
	return s.reload(ctx, userID, currency)
}

// UpdateItem overwrites the quantity without re-checking inventory; zero or less removes the line.
func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int, currency enums.Currency) (*CartView, error) {
	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return nil, err
		}
	} else if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, err
	}
	return s.reload(ctx, userID, currency)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID, currency enums.Currency) (*CartView, error) {
	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	return s.reload(ctx, userID, currency)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.clear(ctx, cart.ID)
}

// ApplyCoupon validates against the recomputed subtotal and stores the discount. Usage is only
// counted once an order is placed.
func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string, currency enums.Currency) (*CouponResult, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	}
	rate, err := s.rates.ExchangeRate(currency)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindByIDs(ctx, productIDs(cart))
	if err != nil {
		return nil, err
	}
	subtotal := buildView(cart, products, s.calc, currency, rate).Totals.Subtotal

	quote, err := s.coupons.Validate(ctx, code, subtotal, s.now())
	if err != nil {
		return nil, err
	}
	couponCode := quote.Code
	discount := quote.Discount
	if err := s.repo.SetCoupon(ctx, cart.ID, &couponCode, &discount); err != nil {
		return nil, err
	}
	cart.CouponCode = &couponCode
	cart.CouponDiscount = &discount

	view := buildView(cart, products, s.calc, currency, rate)
	view.Coupon.Type = string(quote.Type)
	return &CouponResult{Coupon: *view.Coupon, Cart: view}, nil
}

func (s *service) RemoveCoupon(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*CartView, error) {
	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCoupon(ctx, cart.ID, nil, nil); err != nil {
		return nil, err
	}
	return s.reload(ctx, userID, currency)
}

// CheckoutCart returns nil when the user has no cart or it is empty.
func (s *service) CheckoutCart(ctx context.Context, userID uuid.UUID) (*CheckoutCart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, nil
	}
	lines := make([]CheckoutLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, CheckoutLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Variants:  item.Variants,
		})
	}
	return &CheckoutCart{
		CartID:     cart.ID,
		Lines:      lines,
		CouponCode: cart.CouponCode,
		Discount:   cart.Discount(),
	}, nil
}

func (s *service) ClearAfterCheckout(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.clear(ctx, cart.ID)
}

func (s *service) clear(ctx context.Context, cartID uuid.UUID) error {
	if err := s.repo.ClearItems(ctx, cartID); err != nil {
		return err
	}
	return s.repo.SetCoupon(ctx, cartID, nil, nil)
}

func (s *service) existingCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*CartView, error) {
	cart, err := s.existingCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart, currency)
}

func (s *service) view(ctx context.Context, cart *models.Cart, currency enums.Currency) (*CartView, error) {
	rate, err := s.rates.ExchangeRate(currency)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindByIDs(ctx, productIDs(cart))
	if err != nil {
		return nil, err
	}
	return buildView(cart, products, s.calc, currency, rate), nil
}

func productIDs(cart *models.Cart) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
