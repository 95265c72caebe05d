package currency

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// referenceRates are units of each currency per 1 USD, used until a refresh succeeds.
var referenceRates = map[enums.Currency]float64{
	enums.CurrencyUSD: 1,
	enums.CurrencyEUR: 0.92,
	enums.CurrencyGBP: 0.79,
	enums.CurrencyINR: 83,
	enums.CurrencyCAD: 1.35,
	enums.CurrencyAUD: 1.52,
	enums.CurrencyJPY: 150,
}

const defaultRefreshTimeout = 5 * time.Second

// Service converts amounts stored in the base currency into display currencies.
type Service interface {
	BaseCurrency() enums.Currency
	SupportedCurrencies() []enums.Currency
	Rates() map[enums.Currency]float64
	ExchangeRate(currency enums.Currency) (float64, error)
	ConvertToCurrency(amountInBase float64, currency enums.Currency) (float64, error)
	ConvertBetweenCurrencies(amount float64, from, to enums.Currency) (float64, error)
	Refresh(ctx context.Context)
}

// RateFetcher loads the latest reference table (units per 1 USD).
type RateFetcher interface {
	FetchReference(ctx context.Context) (map[string]float64, error)
}

// RateCache shares a fetched reference table between instances.
type RateCache interface {
	Load(ctx context.Context) (map[string]float64, bool, error)
	Store(ctx context.Context, reference map[string]float64) error
}

// Options configures the currency service.
type Options struct {
	Base           string
	Fetcher        RateFetcher
	Cache          RateCache
	Logger         *logger.Logger
	RefreshTimeout time.Duration
}

type service struct {
	mu        sync.RWMutex
	base      enums.Currency
	reference map[enums.Currency]float64
	rates     map[enums.Currency]float64

	fetcher RateFetcher
	cache   RateCache
	logg    *logger.Logger
	timeout time.Duration
	group   singleflight.Group
}

// NewService builds the rate table from the static reference, then tries the shared cache and
// finally the remote API. Remote failures only degrade to the static table.
func NewService(ctx context.Context, opts Options) (Service, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	base, err := enums.ParseCurrency(opts.Base)
	if err != nil {
		opts.Logger.Warn(opts.Logger.WithField(ctx, "configured_base", opts.Base), "invalid base currency, falling back to INR")
		base = enums.DefaultCurrency
	}

	timeout := opts.RefreshTimeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}

	svc := &service{
		base:      base,
		reference: make(map[enums.Currency]float64, len(referenceRates)),
		fetcher:   opts.Fetcher,
		cache:     opts.Cache,
		logg:      opts.Logger,
		timeout:   timeout,
	}
	for code, value := range referenceRates {
		svc.reference[code] = value
	}
	svc.recompute()

	if svc.loadFromCache(ctx) {
		return svc, nil
	}
	svc.Refresh(ctx)
	return svc, nil
}

func (s *service) BaseCurrency() enums.Currency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

func (s *service) SupportedCurrencies() []enums.Currency {
	return enums.SupportedCurrencies()
}

// Rates returns a snapshot copy of the current table keyed by currency.
func (s *service) Rates() map[enums.Currency]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[enums.Currency]float64, len(s.rates))
	for code, rate := range s.rates {
		out[code] = rate
	}
	return out
}

func (s *service) ExchangeRate(currency enums.Currency) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if currency == s.base {
		return 1, nil
	}
	if len(s.rates) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeConfiguration, "exchange rates not initialized")
	}
	rate, ok := s.rates[currency]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("unsupported currency: %s", currency))
	}
	return rate, nil
}

func (s *service) ConvertToCurrency(amountInBase float64, currency enums.Currency) (float64, error) {
	if currency == s.BaseCurrency() {
		return amountInBase, nil
	}
	rate, err := s.ExchangeRate(currency)
	if err != nil {
		return 0, err
	}
	return amountInBase * rate, nil
}

func (s *service) ConvertBetweenCurrencies(amount float64, from, to enums.Currency) (float64, error) {
	if from == to {
		return amount, nil
	}
	fromRate, err := s.ExchangeRate(from)
	if err != nil {
		return 0, err
	}
	toRate, err := s.ExchangeRate(to)
	if err != nil {
		return 0, err
	}
	return amount / fromRate * toRate, nil
}

// Refresh pulls the reference table from the fetcher. Concurrent callers share one request and
// any failure keeps the table already in place.
func (s *service) Refresh(ctx context.Context) {
	if s.fetcher == nil {
		return
	}
	_, _, _ = s.group.Do("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		raw, err := s.fetcher.FetchReference(fetchCtx)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "exchange rate refresh failed, keeping current table")
			return nil, nil
		}
		applied := s.apply(raw)
		if applied == 0 {
			s.logg.Warn(ctx, "exchange rate payload had no supported currencies, keeping current table")
			return nil, nil
		}

		if s.cache != nil {
			if err := s.cache.Store(ctx, s.referenceSnapshot()); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to cache exchange rates")
			}
		}
		s.logg.Info(s.logg.WithField(ctx, "currencies", applied), "exchange rates refreshed")
		return nil, nil
	})
}

func (s *service) loadFromCache(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	raw, ok, err := s.cache.Load(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "exchange rate cache read failed")
		return false
	}
	if !ok {
		return false
	}
	return s.apply(raw) > 0
}

// apply merges supported, positive entries into the reference table and recomputes rates.
func (s *service) apply(raw map[string]float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for code, value := range raw {
		currency, err := enums.ParseCurrency(code)
		if err != nil || value <= 0 {
			continue
		}
		s.reference[currency] = value
		applied++
	}
	if applied > 0 {
		s.recomputeLocked()
	}
	return applied
}

func (s *service) referenceSnapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.reference))
	for code, value := range s.reference {
		out[code.String()] = value
	}
	return out
}

func (s *service) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *service) recomputeLocked() {
	baseRef := s.reference[s.base]
	rates := make(map[enums.Currency]float64, len(s.reference))
	for code, value := range s.reference {
		if baseRef <= 0 {
			continue
		}
		rates[code] = value / baseRef
	}
	if baseRef > 0 {
		rates[s.base] = 1
	}
	s.rates = rates
}

// SortedCodes returns the rate table keys in stable order for display.
func SortedCodes(rates map[enums.Currency]float64) []enums.Currency {
	codes := make([]enums.Currency, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
