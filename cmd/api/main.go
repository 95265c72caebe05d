package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/currency"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	rates, err := currency.NewService(ctx, currency.Options{
		Base:           cfg.Currency.Base,
		Fetcher:        currency.NewHTTPRateFetcher(cfg.Currency.RateAPIURL, &http.Client{Timeout: cfg.Currency.RefreshTimeout}),
		Cache:          currency.NewRedisRateCache(redisClient, cfg.Currency.CacheTTL),
		Logger:         logg,
		RefreshTimeout: cfg.Currency.RefreshTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create currency service", err)
		os.Exit(1)
	}
	// The currency service normalizes the configured base; everything else follows it.
	base := rates.BaseCurrency()

	calculator, err := pricing.NewCalculator(cfg.Checkout.ShippingFee)
	if err != nil {
		logg.Error(ctx, "invalid checkout pricing config", err)
		os.Exit(1)
	}

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(productRepo, rates)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create coupon service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), productRepo, couponService, rates, calculator)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	var stripeClient *pkgstripe.Client
	if cfg.Stripe.Enabled() {
		stripeClient, err = pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			logg.Error(ctx, "failed to create stripe client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "stripe api key not set, payments run in placeholder mode")
	}
	gateway := payments.NewGateway(stripeClient)
	paymentService, err := payments.NewService(gateway, base)
	if err != nil {
		logg.Error(ctx, "failed to create payment service", err)
		os.Exit(1)
	}

	notifier, err := notifications.NewNotifier(dbClient, outbox.NewService(outbox.NewRepository(dbClient.DB()), logg))
	if err != nil {
		logg.Error(ctx, "failed to create order notifier", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repository:   orders.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Carts:        cartService,
		Products:     productRepo,
		Rates:        rates,
		Addresses:    address.NewRepository(dbClient.DB()),
		Coupons:      couponService,
		Notifier:     notifier,
		Payments:     gateway,
		SideEffects:  notifications.NewRunner(logg, checkoutMetrics),
		Sequence:     redisClient,
		Metrics:      checkoutMetrics,
		Calculator:   calculator,
		BaseCurrency: base,
		AddressDefaults: address.Defaults{
			Country: cfg.Checkout.DefaultCountry,
			Phone:   cfg.Checkout.DefaultPhone,
		},
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Metrics:     registry,
		Currency:    rates,
		Products:    productService,
		Cart:        cartService,
		Coupons:     couponService,
		Orders:      orderService,
		Payments:    paymentService,
	}

	if cfg.Stripe.Secret != "" {
		webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Orders:  orderService,
			Metrics: checkoutMetrics,
			Logger:  logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		guard, err := stripewebhook.NewEventGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL)
		if err != nil {
			logg.Error(ctx, "failed to create stripe webhook guard", err)
			os.Exit(1)
		}
		deps.StripeWebhook = webhookService
		deps.WebhookVerifier = stripewebhook.NewVerifier(cfg.Stripe.Secret)
		deps.WebhookGuard = guard
	} else {
		logg.Warn(ctx, "stripe webhook secret not set, payment webhooks disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"base":     string(base),
		"payments": cfg.Stripe.Environment(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(serverCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}
