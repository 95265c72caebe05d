package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxRatePayloadBytes = 1 << 20

// HTTPRateFetcher reads an exchangerate-api style payload: {"rates": {"EUR": 0.92, ...}}.
type HTTPRateFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPRateFetcher builds a fetcher for the given endpoint. A nil client uses a 10s default.
func NewHTTPRateFetcher(url string, client *http.Client) *HTTPRateFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPRateFetcher{url: url, client: client}
}

type ratePayload struct {
	Rates map[string]float64 `json:"rates"`
}

func (f *HTTPRateFetcher) FetchReference(ctx context.Context) (map[string]float64, error) {
	if f.url == "" {
		return nil, fmt.Errorf("rate api url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var payload ratePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRatePayloadBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rates payload empty")
	}
	return payload.Rates, nil
}
