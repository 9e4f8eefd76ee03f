package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xtrntr/tradeview/internal/api"
	"github.com/xtrntr/tradeview/internal/config"
	"github.com/xtrntr/tradeview/internal/exchange"
	"github.com/xtrntr/tradeview/internal/marketdata"
	"github.com/xtrntr/tradeview/internal/metrics"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Main entry point: sets up the development exchange, the page renderer and
// the HTTP server
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("config loaded",
		"addr", cfg.Addr,
		"api_url", cfg.SelfURL(),
		"charts", cfg.Charts,
		"render_timeout", cfg.RenderTimeout,
		"symbols", cfg.Symbols,
		"price_bands", len(cfg.PriceBands),
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	// Initialize exchange (order books and matching engine)
	var exOpts []exchange.Option
	for _, b := range cfg.PriceBands {
		exOpts = append(exOpts, exchange.WithPriceBand(b.Symbol, exchange.PriceBand{Ref: b.Ref, Pct: b.Pct}))
	}
	ex := exchange.NewExchange(exOpts...)
	for _, s := range cfg.Symbols {
		ex.List(s)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Pages load market data over HTTP, the same way the browser does
	client := marketdata.NewClient(cfg.SelfURL(), marketdata.WithLogger(slog.Default()))

	handler := api.NewHandler(ex, client, m)
	handler.Charts = cfg.Charts
	handler.RenderTimeout = cfg.RenderTimeout

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(handler, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
