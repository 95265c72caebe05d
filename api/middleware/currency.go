package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/currency"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Currency resolves the display currency for the request from headers, the query string and
// the configured base.
func Currency(base enums.Currency) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			xHeader := r.Header.Get("X-Currency")
			header := r.Header.Get("currency")
			query := r.URL.Query().Get("currency")

			resolved := requestCurrency{
				code:     enums.Currency(currency.Resolve(xHeader, header, query, string(base))),
				explicit: strings.TrimSpace(xHeader+header+query) != "",
			}
			next.ServeHTTP(w, r.WithContext(withRequestCurrency(r.Context(), resolved)))
		})
	}
}
