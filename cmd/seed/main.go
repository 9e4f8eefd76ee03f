package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xtrntr/tradeview/internal/config"
	"github.com/xtrntr/tradeview/internal/marketdata"
)

type demoOrder struct {
	side    string
	variant string
	offset  float64 // from the symbol's base price
	qty     int
}

// Resting book on both sides, then a few orders that cross it.
var demoOrders = []demoOrder{
	{"BUY", "LIMIT", -2, 10},
	{"BUY", "LIMIT", -1, 5},
	{"BUY", "LIMIT", -1, 8},
	{"SELL", "LIMIT", 1, 6},
	{"SELL", "LIMIT", 2, 12},
	{"SELL", "LIMIT", 3, 4},
	{"BUY", "LIMIT", 1, 4},
	{"SELL", "MARKET", 0, 3},
	{"BUY", "IOC", 2, 20},
	{"SELL", "FOK", -2, 100},
}

var basePrices = map[string]float64{
	"RELIANCE":  2000,
	"INFY":      1500,
	"TATASTEEL": 800,
}

// Seed the running server with demo orders for every listed symbol
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	baseURL := flag.String("url", cfg.SelfURL(), "server base URL")
	reset := flag.Bool("reset", false, "reset the books before seeding")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpClient := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	client := marketdata.NewClient(*baseURL, marketdata.WithHTTPClient(httpClient))

	if *reset {
		if err := post(ctx, httpClient, *baseURL+"/reset_orderbook", nil); err != nil {
			slog.Error("failed to reset order books", "error", err)
			os.Exit(1)
		}
	}

	symbols, err := client.FetchSymbols(ctx)
	if err != nil {
		slog.Error("failed to fetch symbols", "url", *baseURL, "error", err)
		os.Exit(1)
	}

	for _, symbol := range symbols {
		base, ok := basePrices[symbol]
		if !ok {
			base = 100
		}
		for _, o := range demoOrders {
			form := url.Values{
				"symbol":        {symbol},
				"order_type":    {o.side},
				"order_variant": {o.variant},
				"quantity":      {strconv.Itoa(o.qty)},
			}
			if o.variant != "MARKET" {
				form.Set("price", strconv.FormatFloat(base+o.offset, 'f', 2, 64))
			}
			if err := post(ctx, httpClient, *baseURL+"/place_order", form); err != nil {
				slog.Error("failed to place order", "symbol", symbol, "side", o.side, "variant", o.variant, "error", err)
				os.Exit(1)
			}
		}

		trades, err := client.FetchTradeHistory(ctx, symbol)
		if err != nil {
			slog.Error("failed to fetch trades", "symbol", symbol, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d orders placed, %d trades\n", symbol, len(demoOrders), len(trades))
	}
}

func post(ctx context.Context, hc *http.Client, target string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, target)
	}
	return nil
}
