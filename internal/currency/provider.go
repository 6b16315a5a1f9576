package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPProvider fetches rates from a Frankfurter-compatible API
// (GET {base}/latest?from=EUR&to=USD).
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider for the given API base URL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Rate implements RateProvider.
func (p *HTTPProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, ok := body.Rates[to]
	if !ok {
		return 0, fmt.Errorf("rate API has no rate for %s", to)
	}
	return rate, nil
}

// StaticProvider serves rates from a fixed table keyed by target currency,
// relative to Base. An empty Base means the table is relative to whatever
// currency is converted from. Used for offline runs and tests.
type StaticProvider struct {
	Base  string
	Rates map[string]float64
}

// Rate implements RateProvider. Cross rates are derived through Base.
func (p StaticProvider) Rate(_ context.Context, from, to string) (float64, error) {
	base := p.Base
	if base == "" {
		base = from
	}
	lookup := func(code string) (float64, bool) {
		if code == base {
			return 1, true
		}
		r, ok := p.Rates[code]
		return r, ok
	}
	f, ok := lookup(from)
	if !ok || f == 0 {
		return 0, fmt.Errorf("no static rate for %s", from)
	}
	t, ok := lookup(to)
	if !ok {
		return 0, fmt.Errorf("no static rate for %s", to)
	}
	return t / f, nil
}
