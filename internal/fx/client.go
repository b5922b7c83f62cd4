// Package fx supplies the USD/ARS informal exchange rate used to price
// foreign-currency sales.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client fetches the current blue-dollar quote from a public API.
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient constructs Client.
func NewClient(url string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		url:        url,
	}
}

type quoteResponse struct {
	Blue struct {
		ValueSell float64 `json:"value_sell"`
	} `json:"blue"`
}

// Fetch returns the current sell quote.
func (c *Client) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("fx: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fx: fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fx: quote API returned %d", resp.StatusCode)
	}
	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("fx: decode quote: %w", err)
	}
	if payload.Blue.ValueSell <= 0 {
		return 0, fmt.Errorf("fx: quote API returned non-positive rate")
	}
	return payload.Blue.ValueSell, nil
}
