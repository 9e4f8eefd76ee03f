package ui

import (
	"context"
	"log/slog"

	"github.com/xtrntr/tradeview/internal/chart"
	"github.com/xtrntr/tradeview/internal/dom"
	"github.com/xtrntr/tradeview/internal/metrics"
	"github.com/xtrntr/tradeview/internal/models"
	"github.com/xtrntr/tradeview/internal/render"
)

// MarketData is the read side of the exchange API.
type MarketData interface {
	FetchOrderBook(ctx context.Context, symbol string) (*models.OrderBookSnapshot, error)
	FetchTradeHistory(ctx context.Context, symbol string) ([]models.Trade, error)
}

// Load targets, also used as metric and log labels
const (
	TargetOrderBook = "orderbook"
	TargetTrades    = "trades"
)

// loadSlot tracks the newest load issued for one target. Only a resolution
// carrying the current generation may render.
type loadSlot struct {
	gen    uint64
	cancel context.CancelFunc
}

// begin supersedes the previous load, cancelling its request.
func (s *loadSlot) begin(parent context.Context) (context.Context, uint64) {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

func (s *loadSlot) finish(gen uint64) bool {
	if gen != s.gen {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// Loader fetches snapshots and renders them into the page's tables and
// charts. Its methods run on the page loop.
type Loader struct {
	doc     *dom.Document
	loop    *Loop
	data    MarketData
	charts  ChartSink
	log     *slog.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	book   loadSlot
	trades loadSlot
}

// LoadOrderBook fetches the book for symbol and, unless a newer order-book
// load was issued meanwhile, renders both sides and the depth chart. A
// failed fetch is logged and leaves the current rendering untouched.
func (l *Loader) LoadOrderBook(symbol string) {
	ctx, gen := l.book.begin(l.ctx)
	l.loop.Async(func() func() {
		snap, err := l.data.FetchOrderBook(ctx, symbol)
		return func() {
			if !l.book.finish(gen) {
				l.superseded(TargetOrderBook, symbol)
				return
			}
			if err != nil {
				l.failed(TargetOrderBook, symbol, err)
				return
			}
			l.renderOrderBook(snap)
			l.metrics.LoadFinished(TargetOrderBook, metrics.OutcomeOK)
		}
	})
}

// LoadTradeHistory fetches the trades for symbol and renders the trades
// table and, when there are trades, the price chart.
func (l *Loader) LoadTradeHistory(symbol string) {
	ctx, gen := l.trades.begin(l.ctx)
	l.loop.Async(func() func() {
		trades, err := l.data.FetchTradeHistory(ctx, symbol)
		return func() {
			if !l.trades.finish(gen) {
				l.superseded(TargetTrades, symbol)
				return
			}
			if err != nil {
				l.failed(TargetTrades, symbol, err)
				return
			}
			l.renderTrades(trades)
			l.metrics.LoadFinished(TargetTrades, metrics.OutcomeOK)
		}
	})
}

func (l *Loader) renderOrderBook(snap *models.OrderBookSnapshot) {
	buys, sells := render.OrderBookRows(snap)
	if t := l.doc.GetElementByID(BuyOrdersTableID); t != nil {
		ApplyRows(t, buys)
	}
	if t := l.doc.GetElementByID(SellOrdersTableID); t != nil {
		ApplyRows(t, sells)
	}
	l.draw(DepthChartID, func() chart.Config { return chart.Depth(snap) })
}

func (l *Loader) renderTrades(trades []models.Trade) {
	if t := l.doc.GetElementByID(TradesTableID); t != nil {
		ApplyRows(t, render.TradeRows(trades))
	}
	if len(trades) > 0 {
		l.draw(PriceChartID, func() chart.Config { return chart.PriceHistory(trades) })
	}
}

func (l *Loader) draw(canvasID string, build func() chart.Config) {
	if l.charts == nil {
		return
	}
	canvas := l.doc.GetElementByID(canvasID)
	if canvas == nil {
		return
	}
	if err := l.charts.Draw(canvas, build()); err != nil {
		l.log.Error("failed to draw chart", "canvas", canvasID, "error", err)
	}
}

func (l *Loader) failed(target, symbol string, err error) {
	l.log.Error("failed to load market data", "target", target, "symbol", symbol, "error", err)
	l.metrics.LoadFinished(target, metrics.OutcomeError)
}

func (l *Loader) superseded(target, symbol string) {
	l.log.Debug("dropping superseded load", "target", target, "symbol", symbol)
	l.metrics.LoadFinished(target, metrics.OutcomeSuperseded)
}
