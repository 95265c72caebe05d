package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// RequireActor returns the authenticated caller or an unauthorized error.
func RequireActor(r *http.Request) (types.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

// UUIDParam parses a chi path parameter as a UUID.
func UUIDParam(r *http.Request, name, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}

// WithURLParam adds a chi route parameter to the request context.
func WithURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestCurrency returns the resolved request currency, rejecting unsupported codes.
func RequestCurrency(r *http.Request) (enums.Currency, error) {
	return ParseCurrency(string(middleware.CurrencyFromContext(r.Context())))
}

// ParseCurrency validates a client-supplied currency code.
func ParseCurrency(raw string) (enums.Currency, error) {
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		supported := make([]string, 0, len(enums.SupportedCurrencies()))
		for _, c := range enums.SupportedCurrencies() {
			supported = append(supported, c.String())
		}
		msg := fmt.Sprintf("Unsupported currency: %s. Supported currencies: %s", strings.ToUpper(strings.TrimSpace(raw)), strings.Join(supported, ", "))
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
	}
	return currency, nil
}
