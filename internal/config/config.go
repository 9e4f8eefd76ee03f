package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// PriceBand limits LIMIT prices on Symbol to Ref plus or minus Pct percent.
type PriceBand struct {
	Symbol string
	Ref    decimal.Decimal
	Pct    decimal.Decimal
}

// Config holds the server configuration.
type Config struct {
	// HTTP bind address
	Addr string

	// APIURL is the exchange API pages load market data from. Empty means
	// the server's own address.
	APIURL string

	// Charts enables chart descriptions on rendered pages.
	Charts bool

	// RenderTimeout bounds how long a page render waits for its loads.
	RenderTimeout time.Duration

	// Symbols listed on the development exchange at startup
	Symbols []string
	// PriceBands are "SYMBOL:REF:PCT" entries; a banded symbol is listed too.
	PriceBands []PriceBand

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		Addr:          getEnvOrDefault("TRADEVIEW_ADDR", ":8080"),
		APIURL:        getEnvOrDefault("TRADEVIEW_API_URL", ""),
		Charts:        getEnvBoolOrDefault("TRADEVIEW_CHARTS", true),
		RenderTimeout: time.Duration(getEnvIntOrDefault("TRADEVIEW_RENDER_TIMEOUT_MS", 5000)) * time.Millisecond,
		Symbols:       splitList(getEnvOrDefault("TRADEVIEW_SYMBOLS", "RELIANCE,INFY,TATASTEEL")),
		PriceBands:    parseBands(getEnvOrDefault("TRADEVIEW_PRICE_BANDS", "RELIANCE:2000:5,INFY:1500:10,TATASTEEL:800:20")),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault("LOG_FILE", "logs/tradeview.log"),
	}
	return cfg, nil
}

// SelfURL is the base URL the server reaches itself on.
func (c *Config) SelfURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	addr := c.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBands(s string) []PriceBand {
	var bands []PriceBand
	for _, entry := range splitList(s) {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			slog.Warn("ignoring malformed price band", "entry", entry)
			continue
		}
		ref, err1 := decimal.NewFromString(parts[1])
		pct, err2 := decimal.NewFromString(parts[2])
		if err1 != nil || err2 != nil || !ref.IsPositive() || pct.IsNegative() {
			slog.Warn("ignoring malformed price band", "entry", entry)
			continue
		}
		bands = append(bands, PriceBand{Symbol: strings.TrimSpace(parts[0]), Ref: ref, Pct: pct})
	}
	return bands
}
