package currency

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/responses"
	currencysvc "github.com/angelmondragon/storefront-backend/internal/currency"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type supportedResponse struct {
	Base       enums.Currency   `json:"base"`
	Currencies []enums.Currency `json:"currencies"`
}

type ratesResponse struct {
	Base  enums.Currency             `json:"base"`
	Rates map[enums.Currency]float64 `json:"rates"`
}

type convertResponse struct {
	Amount    float64         `json:"amount"`
	From      enums.Currency  `json:"from"`
	To        enums.Currency  `json:"to"`
	Converted decimal.Decimal `json:"converted"`
}

func Supported(svc currencysvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, supportedResponse{Base: svc.BaseCurrency(), Currencies: svc.SupportedCurrencies()})
	}
}

func Rates(svc currencysvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, ratesResponse{Base: svc.BaseCurrency(), Rates: svc.Rates()})
	}
}

// Convert converts amount between two currencies. from defaults to the base currency and to
// defaults to the request currency.
func Convert(svc currencysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		amount, err := strconv.ParseFloat(strings.TrimSpace(query.Get("amount")), 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be a number"))
			return
		}
		if amount < 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative"))
			return
		}

		from := svc.BaseCurrency()
		if raw := strings.TrimSpace(query.Get("from")); raw != "" {
			if from, err = controllers.ParseCurrency(raw); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		to, err := controllers.RequestCurrency(r)
		if raw := strings.TrimSpace(query.Get("to")); raw != "" {
			to, err = controllers.ParseCurrency(raw)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		converted, err := svc.ConvertBetweenCurrencies(amount, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, convertResponse{
			Amount:    amount,
			From:      from,
			To:        to,
			Converted: decimal.NewFromFloat(converted).Round(2),
		})
	}
}
