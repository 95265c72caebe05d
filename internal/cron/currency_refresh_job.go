package cron

import (
	"context"
	"fmt"
	"time"
)

type rateRefresher interface {
	Refresh(ctx context.Context)
}

// NewCurrencyRefreshJob pulls the exchange-rate table and writes it to the shared cache that API
// instances load on startup. Refresh failures keep the previous table, so the job never fails.
func NewCurrencyRefreshJob(rates rateRefresher, interval time.Duration) (Job, error) {
	if rates == nil {
		return nil, fmt.Errorf("currency service required")
	}
	return &currencyRefreshJob{rates: rates, interval: interval}, nil
}

type currencyRefreshJob struct {
	rates    rateRefresher
	interval time.Duration
}

func (j *currencyRefreshJob) Name() string            { return "currency-refresh" }
func (j *currencyRefreshJob) Interval() time.Duration { return j.interval }

func (j *currencyRefreshJob) Run(ctx context.Context) error {
	j.rates.Refresh(ctx)
	return nil
}
