package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type contextKey string

const (
	ctxActor    contextKey = "actor"
	ctxCurrency contextKey = "currency"
)

// ActorFromContext returns the authenticated caller. ok is false for anonymous requests.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	if ctx == nil {
		return types.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(types.Actor)
	return actor, ok
}

// WithActor injects the caller into the context.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

func UserIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return string(actor.Role)
	}
	return ""
}

type requestCurrency struct {
	code     enums.Currency
	explicit bool
}

// CurrencyFromContext returns the currency resolved by the Currency middleware, or the
// default when the middleware did not run.
func CurrencyFromContext(ctx context.Context) enums.Currency {
	if rc, ok := currencyValue(ctx); ok && rc.code != "" {
		return rc.code
	}
	return enums.DefaultCurrency
}

// RequestedCurrency returns the currency only when the caller named one in a header or the
// query string.
func RequestedCurrency(ctx context.Context) (enums.Currency, bool) {
	rc, ok := currencyValue(ctx)
	if !ok || !rc.explicit {
		return "", false
	}
	return rc.code, true
}

func WithCurrency(ctx context.Context, currency enums.Currency) context.Context {
	return withRequestCurrency(ctx, requestCurrency{code: currency, explicit: true})
}

func withRequestCurrency(ctx context.Context, rc requestCurrency) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCurrency, rc)
}

func currencyValue(ctx context.Context) (requestCurrency, bool) {
	if ctx == nil {
		return requestCurrency{}, false
	}
	rc, ok := ctx.Value(ctxCurrency).(requestCurrency)
	return rc, ok
}
