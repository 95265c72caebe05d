package product

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// Service exposes catalog reads priced in the caller's currency.
type Service interface {
	Get(ctx context.Context, viewer *types.Actor, id uuid.UUID, currency enums.Currency) (*ProductDTO, error)
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type rateSource interface {
	ExchangeRate(currency enums.Currency) (float64, error)
}

type service struct {
	repo  productReader
	rates rateSource
}

// NewService constructs a product service instance.
func NewService(repo productReader, rates rateSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if rates == nil {
		return nil, fmt.Errorf("currency service required")
	}
	return &service{repo: repo, rates: rates}, nil
}

// Get hides unapproved products from everyone except admins and the owning seller.
func (s *service) Get(ctx context.Context, viewer *types.Actor, id uuid.UUID, currency enums.Currency) (*ProductDTO, error) {
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency: %s", currency))
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, product) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	rate, err := s.rates.ExchangeRate(currency)
	if err != nil {
		return nil, err
	}
	return mapProductDTO(*product, currency, rate, pricing.Convert(product.Price, rate)), nil
}

func canView(viewer *types.Actor, product *models.Product) bool {
	if product.IsAvailable() {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || (viewer.IsSeller() && viewer.Owns(product.SellerID))
}
