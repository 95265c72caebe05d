package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"
	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvCurrencyBase     = "STOREFRONT_CURRENCY_BASE"
	EnvStripeAPIKey     = "STOREFRONT_STRIPE_API_KEY"
	EnvSMTPHost         = "STOREFRONT_SMTP_HOST"
	EnvSMTPAdminEmails  = "STOREFRONT_SMTP_ADMIN_EMAILS"
	EnvCheckoutShipping = "STOREFRONT_CHECKOUT_SHIPPING_FEE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
