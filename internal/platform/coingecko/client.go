// Package coingecko is the REST client for CoinGecko-compatible market-data
// APIs: batch market quotes and per-asset market charts.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/bankdesk/internal/domain"
)

// DefaultBaseURL is the public CoinGecko v3 API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches quotes and charts from the market-data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new market-data client.
//
// baseURL is the API root, e.g. "https://api.coingecko.com/api/v3". apiKey is
// optional; when set it is sent as the demo-plan key header. A zero timeout
// falls back to 30 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Markets returns quotes for the given asset ids priced in currency, using a
// single /coins/markets call.
func (c *Client) Markets(ctx context.Context, currency string, ids []string) ([]domain.CoinPrice, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("ids", strings.Join(ids, ","))
	params.Set("order", "market_cap_desc")
	params.Set("per_page", "20")
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")

	path := "/coins/markets?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("coingecko: get markets: %w", err)
	}

	var apiMarkets []APICoinMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("coingecko: decode markets: %w: %w", domain.ErrTransport, err)
	}

	prices := make([]domain.CoinPrice, 0, len(apiMarkets))
	for i := range apiMarkets {
		prices = append(prices, apiMarkets[i].ToDomainCoinPrice())
	}

	return prices, nil
}

// MarketChart returns the price, market cap and volume series of one asset
// over the last days days.
func (c *Client) MarketChart(ctx context.Context, id string, days int, currency string) (domain.MarketChart, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("days", strconv.Itoa(days))

	path := fmt.Sprintf("/coins/%s/market_chart?%s", url.PathEscape(id), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.MarketChart{}, fmt.Errorf("coingecko: get market chart %s: %w", id, err)
	}

	var chart APIMarketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return domain.MarketChart{}, fmt.Errorf("coingecko: decode market chart %s: %w: %w", id, domain.ErrTransport, err)
	}

	return chart.ToDomainMarketChart(id, days, currency), nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends a GET request to the API and returns the response body. Every
// failure, including non-2xx statuses, is marked with domain.ErrTransport.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx responses to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	if len(bodyStr) > 512 {
		bodyStr = bodyStr[:512]
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", domain.ErrTransport, domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", domain.ErrTransport, domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: %s", domain.ErrTransport, domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrTransport, statusCode, bodyStr)
	}
}

// Compile-time interface check.
var _ domain.MarketSource = (*Client)(nil)
