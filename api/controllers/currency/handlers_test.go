package currency

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	currencysvc "github.com/angelmondragon/storefront-backend/internal/currency"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newService(t *testing.T) currencysvc.Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := currencysvc.NewService(context.Background(), currencysvc.Options{Base: "INR", Logger: logg})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSupported(t *testing.T) {
	resp := httptest.NewRecorder()
	Supported(newService(t)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/currency/supported", nil))

	var envelope struct {
		Data supportedResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Base != enums.CurrencyINR || len(envelope.Data.Currencies) != len(enums.SupportedCurrencies()) {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestRatesIncludeBase(t *testing.T) {
	resp := httptest.NewRecorder()
	Rates(newService(t)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/currency/rates", nil))

	var envelope struct {
		Data ratesResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Rates[enums.CurrencyINR] != 1 {
		t.Fatalf("expected base rate 1, got %v", envelope.Data.Rates)
	}
}

func TestConvert(t *testing.T) {
	svc := newService(t)
	cases := []struct {
		name   string
		target string
		status int
		to     enums.Currency
	}{
		{name: "explicit target", target: "/api/currency/convert?amount=830&from=INR&to=INR", status: http.StatusOK, to: enums.CurrencyINR},
		{name: "request currency", target: "/api/currency/convert?amount=83", status: http.StatusOK, to: enums.CurrencyUSD},
		{name: "bad amount", target: "/api/currency/convert?amount=abc", status: http.StatusBadRequest},
		{name: "negative amount", target: "/api/currency/convert?amount=-1", status: http.StatusBadRequest},
		{name: "unsupported", target: "/api/currency/convert?amount=1&to=XYZ", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			req = req.WithContext(middleware.WithCurrency(req.Context(), enums.CurrencyUSD))
			resp := httptest.NewRecorder()
			Convert(svc, nil).ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d (%s)", tc.status, resp.Code, resp.Body.String())
			}
			if tc.status != http.StatusOK {
				return
			}
			var envelope struct {
				Data convertResponse `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if envelope.Data.To != tc.to || !envelope.Data.Converted.IsPositive() {
				t.Fatalf("unexpected payload %+v", envelope.Data)
			}
		})
	}
}
