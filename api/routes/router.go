package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	couponcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/coupons"
	currencycontrollers "github.com/angelmondragon/storefront-backend/api/controllers/currency"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/payments"
	productcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/products"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/currency"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies are the services and infrastructure the HTTP surface is built on.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimiter middleware.RateLimiterStore
	Metrics     prometheus.Gatherer

	Currency currency.Service
	Products product.Service
	Cart     cart.Service
	Coupons  coupons.Service
	Orders   orders.Service
	Payments payments.Service

	StripeWebhook   webhookcontrollers.StripeWebhookService
	WebhookVerifier webhookcontrollers.SignatureVerifier
	WebhookGuard    webhookcontrollers.StripeWebhookGuard
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins...),
		middleware.Currency(baseCurrency(cfg, deps.Currency)),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.Window,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutUserLimit,
	)
	couponPolicy := middleware.NewRateLimitPolicy(
		"coupon",
		cfg.RateLimit.Window,
		0,
		cfg.RateLimit.CouponUserLimit,
	)
	checkoutLimit := middleware.RateLimit(checkoutPolicy, deps.RateLimiter, logg)
	couponLimit := middleware.RateLimit(couponPolicy, deps.RateLimiter, logg)
	idempotent := middleware.Idempotency(deps.Idempotency, logg)
	adminOnly := middleware.RequireRole(enums.UserRoleAdmin, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}, logg))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/currency", func(r chi.Router) {
			r.Get("/supported", currencycontrollers.Supported(deps.Currency))
			r.Get("/rates", currencycontrollers.Rates(deps.Currency))
			r.Get("/convert", currencycontrollers.Convert(deps.Currency, logg))
		})

		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Get("/products/{productId}", productcontrollers.Get(deps.Products, logg))

		r.Post("/payments/webhook", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.WebhookVerifier, deps.WebhookGuard, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Post("/", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.With(couponLimit).Post("/coupon", cartcontrollers.CartApplyCoupon(deps.Cart, logg))
				r.Delete("/coupon", cartcontrollers.CartRemoveCoupon(deps.Cart, logg))
				r.Put("/{itemId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", couponcontrollers.List(deps.Coupons, logg))
				r.With(adminOnly).Post("/", couponcontrollers.Create(deps.Coupons, logg))
				r.Route("/{couponId}", func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/", couponcontrollers.Get(deps.Coupons, logg))
					r.Put("/", couponcontrollers.Update(deps.Coupons, logg))
					r.Delete("/", couponcontrollers.Delete(deps.Coupons, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(checkoutLimit, idempotent).Post("/", ordercontrollers.Create(deps.Orders, logg))
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", ordercontrollers.Detail(deps.Orders, logg))
					r.With(idempotent).Put("/cancel", ordercontrollers.Cancel(deps.Orders, logg))
					r.With(idempotent).Post("/return", ordercontrollers.RequestReturn(deps.Orders, logg))
					r.Get("/track", ordercontrollers.Track(deps.Orders, logg))
					r.Get("/invoice", ordercontrollers.Invoice(deps.Orders, logg))
					r.Get("/shipping-label", ordercontrollers.ShippingLabel(deps.Orders, logg))
				})
			})

			r.Route("/payments", func(r chi.Router) {
				r.With(checkoutLimit, idempotent).Post("/create-intent", paymentcontrollers.CreateIntent(deps.Payments, deps.Orders, logg))
				r.Post("/confirm", paymentcontrollers.Confirm(deps.Payments, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)
				r.Route("/orders/{orderId}", func(r chi.Router) {
					r.Put("/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
					r.With(idempotent).Post("/refund", ordercontrollers.AdminRefund(deps.Orders, logg))
				})
			})
		})
	})

	return r
}

func baseCurrency(cfg *config.Config, rates currency.Service) enums.Currency {
	if rates != nil {
		return rates.BaseCurrency()
	}
	if base, err := enums.ParseCurrency(cfg.Currency.Base); err == nil {
		return base
	}
	return enums.DefaultCurrency
}
