package currency

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Resolve picks the request currency: X-Currency header, then the currency header, then the
// query parameter, then the configured default, then INR. The result is uppercased but not
// validated; callers reject unsupported codes where it matters.
func Resolve(headerXCurrency, headerCurrency, query, configuredDefault string) string {
	for _, candidate := range []string{headerXCurrency, headerCurrency, query, configuredDefault} {
		if value := strings.TrimSpace(candidate); value != "" {
			return strings.ToUpper(value)
		}
	}
	return enums.DefaultCurrency.String()
}
