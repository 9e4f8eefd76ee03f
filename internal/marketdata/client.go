// Package marketdata reads order-book and trade-history snapshots from the
// exchange's JSON API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/xtrntr/tradeview/internal/models"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Client issues the read-only market-data requests. It sets no timeout and
// never retries; callers bound requests through the context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchOrderBook retrieves the order book for symbol.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string) (*models.OrderBookSnapshot, error) {
	body, err := c.get(ctx, "/api/orderbook/"+url.PathEscape(symbol))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	snap, err := models.DecodeOrderBook(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode order book for %s: %w", symbol, err)
	}
	return snap, nil
}

// FetchTradeHistory retrieves the trades executed for symbol, in server order.
func (c *Client) FetchTradeHistory(ctx context.Context, symbol string) ([]models.Trade, error) {
	body, err := c.get(ctx, "/api/trades/"+url.PathEscape(symbol))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	trades, err := models.DecodeTrades(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trade history for %s: %w", symbol, err)
	}
	return trades, nil
}

// FetchSymbols lists the symbols that currently have an order book.
func (c *Client) FetchSymbols(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/api/symbols")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var symbols []string
	if err := json.NewDecoder(body).Decode(&symbols); err != nil {
		return nil, fmt.Errorf("failed to decode symbols: %w: %v", models.ErrMalformedPayload, err)
	}
	return symbols, nil
}

func (c *Client) get(ctx context.Context, path string) (io.ReadCloser, error) {
	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", u, err)
	}
	c.log.Debug("market data response", "url", u, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{URL: u, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
