package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/xtrntr/tradeview/internal/exchange"
	"github.com/xtrntr/tradeview/internal/metrics"
	"github.com/xtrntr/tradeview/internal/ui"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Exchange *exchange.Exchange
	// Data is what server-rendered pages load market data through.
	Data    ui.MarketData
	Metrics *metrics.Metrics

	// Charts turns on chart descriptions in rendered pages.
	Charts bool
	// RenderTimeout bounds how long a page waits for its loads.
	RenderTimeout time.Duration
	Log           *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(ex *exchange.Exchange, data ui.MarketData, m *metrics.Metrics) *Handler {
	return &Handler{
		Exchange:      ex,
		Data:          data,
		Metrics:       m,
		Charts:        true,
		RenderTimeout: 5 * time.Second,
		Log:           slog.Default(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// GetOrderBook returns the resting orders for a symbol wrapped in an object
// with buy_orders and sell_orders.
func (h *Handler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	writeJSON(w, http.StatusOK, h.Exchange.OrderBook(symbol))
}

// GetTrades returns a symbol's trade history as a bare array.
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	writeJSON(w, http.StatusOK, h.Exchange.Trades(symbol))
}

// GetSymbols lists the symbols known to the exchange.
func (h *Handler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Exchange.Symbols())
}

// PlaceOrder handles the order form post and redirects to the symbol's
// results page.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	req, err := orderFromForm(r.PostForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, status, trades, err := h.Exchange.PlaceOrder(req)
	if err != nil {
		if errors.Is(err, exchange.ErrInvalidOrder) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error("failed to place order", "symbol", req.Symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to place order")
		return
	}
	h.Metrics.OrderPlaced(req.Variant, len(trades))
	h.Log.Info("order placed",
		"order_id", id,
		"symbol", req.Symbol,
		"side", req.Side,
		"variant", req.Variant,
		"status", status,
		"trades", len(trades),
	)

	http.Redirect(w, r, resultsPath(req.Symbol), http.StatusSeeOther)
}

func resultsPath(symbol string) string {
	return "/results?" + url.Values{"symbol": {symbol}}.Encode()
}

func orderFromForm(form url.Values) (exchange.OrderRequest, error) {
	req := exchange.OrderRequest{
		Symbol:  strings.TrimSpace(form.Get("symbol")),
		Side:    strings.ToUpper(form.Get("order_type")),
		Variant: strings.ToUpper(form.Get("order_variant")),
	}

	qty, err := strconv.ParseInt(form.Get("quantity"), 10, 64)
	if err != nil {
		return req, errors.New("quantity must be a whole number")
	}
	req.Quantity = qty

	// MARKET forms hide the price input, so it may be empty or stale.
	if req.Variant != exchange.Market {
		price, err := decimal.NewFromString(form.Get("price"))
		if err != nil {
			return req, errors.New("price must be a number")
		}
		req.Price = price
	}
	return req, nil
}

// CancelOrder removes a resting order from its book.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.Exchange.CancelOrder(orderID); err != nil {
		if errors.Is(err, exchange.ErrUnknownOrder) {
			writeError(w, http.StatusNotFound, "Order not found or not open")
			return
		}
		h.Log.Error("failed to cancel order", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to cancel order")
		return
	}
	h.Log.Info("order canceled", "order_id", orderID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Order canceled"})
}

// ViewOrderBook handles the view form post: an empty view_symbol goes back
// to the index, anything else to the symbol's results page.
func (h *Handler) ViewOrderBook(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.FormValue("view_symbol"))
	if symbol == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, resultsPath(symbol), http.StatusSeeOther)
}

// ResetOrderBook drops every order and trade and returns to the index.
func (h *Handler) ResetOrderBook(w http.ResponseWriter, r *http.Request) {
	h.Exchange.Reset()
	h.Log.Info("order books reset")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
