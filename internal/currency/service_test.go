package currency

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "currency-test", Output: io.Discard})
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type stubFetcher struct {
	rates map[string]float64
	err   error
	calls int
}

func (s *stubFetcher) FetchReference(context.Context) (map[string]float64, error) {
	s.calls++
	return s.rates, s.err
}

type stubCache struct {
	reference map[string]float64
	stored    map[string]float64
}

func (s *stubCache) Load(context.Context) (map[string]float64, bool, error) {
	return s.reference, len(s.reference) > 0, nil
}

func (s *stubCache) Store(_ context.Context, reference map[string]float64) error {
	s.stored = reference
	return nil
}

func newTestService(t *testing.T, opts Options) *service {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	svc, err := NewService(context.Background(), opts)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc.(*service)
}

func TestExchangeRateWithINRBase(t *testing.T) {
	svc := newTestService(t, Options{Base: "INR"})

	rate, err := svc.ExchangeRate(enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("ExchangeRate: %v", err)
	}
	if !approx(rate, 1.0/83.0) {
		t.Fatalf("expected USD rate %v, got %v", 1.0/83.0, rate)
	}

	base, err := svc.ExchangeRate(enums.CurrencyINR)
	if err != nil || base != 1 {
		t.Fatalf("expected base rate 1, got %v err=%v", base, err)
	}
}

func TestInvalidBaseFallsBackToINR(t *testing.T) {
	svc := newTestService(t, Options{Base: "XYZ"})
	if svc.BaseCurrency() != enums.CurrencyINR {
		t.Fatalf("expected INR fallback, got %s", svc.BaseCurrency())
	}
}

func TestConvertToCurrencyIdentityForBase(t *testing.T) {
	svc := newTestService(t, Options{Base: "USD"})
	got, err := svc.ConvertToCurrency(59.98, enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("ConvertToCurrency: %v", err)
	}
	if got != 59.98 {
		t.Fatalf("expected identity conversion, got %v", got)
	}

	eur, err := svc.ConvertToCurrency(100, enums.CurrencyEUR)
	if err != nil {
		t.Fatalf("ConvertToCurrency: %v", err)
	}
	if !approx(eur, 92) {
		t.Fatalf("expected 92 EUR, got %v", eur)
	}
}

func TestConvertBetweenCurrenciesRoundTrip(t *testing.T) {
	svc := newTestService(t, Options{Base: "INR"})
	for _, from := range enums.SupportedCurrencies() {
		for _, to := range enums.SupportedCurrencies() {
			there, err := svc.ConvertBetweenCurrencies(123.45, from, to)
			if err != nil {
				t.Fatalf("convert %s->%s: %v", from, to, err)
			}
			back, err := svc.ConvertBetweenCurrencies(there, to, from)
			if err != nil {
				t.Fatalf("convert %s->%s: %v", to, from, err)
			}
			if math.Abs(back-123.45) > 1e-6 {
				t.Fatalf("round trip %s->%s->%s drifted: %v", from, to, from, back)
			}
		}
	}
}

func TestExchangeRateUnsupportedCurrency(t *testing.T) {
	svc := newTestService(t, Options{Base: "INR"})
	_, err := svc.ExchangeRate(enums.Currency("BTC"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestExchangeRateUninitializedTable(t *testing.T) {
	svc := &service{base: enums.CurrencyINR, logg: testLogger()}
	_, err := svc.ExchangeRate(enums.CurrencyUSD)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRefreshReplacesSupportedAndKeepsMissing(t *testing.T) {
	fetcher := &stubFetcher{rates: map[string]float64{"EUR": 0.5, "XYZ": 9, "INR": 100}}
	cache := &stubCache{}
	svc := newTestService(t, Options{Base: "USD", Fetcher: fetcher, Cache: cache})

	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch during construction, got %d", fetcher.calls)
	}
	rates := svc.Rates()
	if !approx(rates[enums.CurrencyEUR], 0.5) {
		t.Fatalf("expected refreshed EUR 0.5, got %v", rates[enums.CurrencyEUR])
	}
	if !approx(rates[enums.CurrencyGBP], 0.79) {
		t.Fatalf("expected static GBP kept, got %v", rates[enums.CurrencyGBP])
	}
	if _, ok := rates[enums.Currency("XYZ")]; ok {
		t.Fatal("unsupported currency leaked into table")
	}
	if cache.stored["INR"] != 100 {
		t.Fatalf("expected refreshed table cached, got %v", cache.stored)
	}
}

func TestRefreshFailureKeepsTable(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("network down")}
	svc := newTestService(t, Options{Base: "USD", Fetcher: fetcher})

	rate, err := svc.ExchangeRate(enums.CurrencyJPY)
	if err != nil {
		t.Fatalf("ExchangeRate: %v", err)
	}
	if !approx(rate, 150) {
		t.Fatalf("expected static JPY rate, got %v", rate)
	}
}

func TestCacheHitSkipsRemoteFetch(t *testing.T) {
	fetcher := &stubFetcher{rates: map[string]float64{"EUR": 0.1}}
	cache := &stubCache{reference: map[string]float64{"EUR": 0.8}}
	svc := newTestService(t, Options{Base: "USD", Fetcher: fetcher, Cache: cache})

	if fetcher.calls != 0 {
		t.Fatalf("expected cache to satisfy construction, got %d fetches", fetcher.calls)
	}
	if rate, _ := svc.ExchangeRate(enums.CurrencyEUR); !approx(rate, 0.8) {
		t.Fatalf("expected cached EUR 0.8, got %v", rate)
	}
}

func TestRatesReturnsCopy(t *testing.T) {
	svc := newTestService(t, Options{Base: "INR"})
	snapshot := svc.Rates()
	snapshot[enums.CurrencyUSD] = 42
	if rate, _ := svc.ExchangeRate(enums.CurrencyUSD); rate == 42 {
		t.Fatal("mutating snapshot changed service state")
	}
}

func TestResolvePrecedence(t *testing.T) {
	cases := []struct {
		name                      string
		xHeader, header, query, d string
		want                      string
	}{
		{name: "x-currency wins", xHeader: "usd", header: "EUR", query: "GBP", d: "INR", want: "USD"},
		{name: "currency header", header: "eur", query: "GBP", d: "INR", want: "EUR"},
		{name: "query", query: " gbp ", d: "INR", want: "GBP"},
		{name: "configured default", d: "cad", want: "CAD"},
		{name: "hard fallback", want: "INR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.xHeader, tc.header, tc.query, tc.d); got != tc.want {
				t.Fatalf("Resolve = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHTTPRateFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.9,"INR":84.1}}`))
	}))
	defer srv.Close()

	rates, err := NewHTTPRateFetcher(srv.URL, srv.Client()).FetchReference(context.Background())
	if err != nil {
		t.Fatalf("FetchReference: %v", err)
	}
	if rates["INR"] != 84.1 {
		t.Fatalf("unexpected rates %v", rates)
	}
}

func TestHTTPRateFetcherRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewHTTPRateFetcher(srv.URL, srv.Client()).FetchReference(context.Background()); err == nil {
		t.Fatal("expected error for 502")
	}
}

type memoryCacheStore struct {
	data map[string]string
}

func (m *memoryCacheStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryCacheStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memoryCacheStore) CacheKey(parts ...string) string {
	key := "sf:cache"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func TestRedisRateCacheRoundTrip(t *testing.T) {
	store := &memoryCacheStore{data: map[string]string{}}
	cache := NewRedisRateCache(store, time.Hour)

	if _, ok, err := cache.Load(context.Background()); err != nil || ok {
		t.Fatalf("expected empty cache, ok=%v err=%v", ok, err)
	}
	if err := cache.Store(context.Background(), map[string]float64{"EUR": 0.9}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, found := store.data["sf:cache:currency:reference"]; !found {
		t.Fatalf("expected namespaced key, got %v", store.data)
	}
	got, ok, err := cache.Load(context.Background())
	if err != nil || !ok || got["EUR"] != 0.9 {
		t.Fatalf("unexpected load result %v ok=%v err=%v", got, ok, err)
	}
}
