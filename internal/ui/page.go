package ui

import (
	"context"
	"io"
	"log/slog"

	"github.com/xtrntr/tradeview/internal/dom"
	"github.com/xtrntr/tradeview/internal/metrics"
)

// Scope is what the page template knows about its context at load time.
type Scope struct {
	// Symbol is the trading symbol the page is about. Empty means no symbol
	// is in scope and no market data is loaded.
	Symbol string
}

// Wiring reports which features the bootstrapper bound on a page.
type Wiring struct {
	FieldVisibility bool
	Navigator       bool
	Tabs            bool
	OrderBook       bool
	Trades          bool
}

// ViewState is the client-local state of a page.
type ViewState struct {
	ActiveTab          string
	PriceFieldRequired bool
}

// Page is one loaded document with its loop and bound controllers. All
// exported methods are safe to call from any goroutine except a loop task.
type Page struct {
	doc    *dom.Document
	loop   *Loop
	win    Window
	tabs   *TabSwitcher
	loader *Loader
	log    *slog.Logger

	cancel context.CancelFunc
}

// PageOption configures a Page
type PageOption func(*Page)

// WithWindow sets the window that receives navigations and alerts.
func WithWindow(w Window) PageOption {
	return func(p *Page) { p.win = w }
}

// WithCharts enables charting through sink.
func WithCharts(sink ChartSink) PageOption {
	return func(p *Page) { p.loader.charts = sink }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) PageOption {
	return func(p *Page) {
		p.log = l
		p.loader.log = l
	}
}

// WithMetrics records load outcomes.
func WithMetrics(m *metrics.Metrics) PageOption {
	return func(p *Page) { p.loader.metrics = m }
}

// NewPage starts a loop for doc. Nothing is bound until Bootstrap.
func NewPage(doc *dom.Document, data MarketData, opts ...PageOption) *Page {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop()
	p := &Page{
		doc:    doc,
		loop:   loop,
		win:    &RecordingWindow{},
		log:    slog.Default(),
		cancel: cancel,
	}
	p.loader = &Loader{doc: doc, loop: loop, data: data, log: p.log, ctx: ctx}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bootstrap is the page-ready handler. It binds every feature whose anchors
// exist and, when a symbol is in scope, starts the order-book load if either
// book table exists and the trade-history load if the trades table exists.
func (p *Page) Bootstrap(scope Scope) Wiring {
	var w Wiring
	p.loop.Do(func() {
		w.FieldVisibility = BindFieldVisibility(p.doc)
		w.Navigator = BindNavigator(p.doc, p.win)
		p.tabs = BindTabs(p.doc)
		w.Tabs = p.tabs != nil

		if scope.Symbol == "" {
			return
		}
		if p.doc.GetElementByID(BuyOrdersTableID) != nil || p.doc.GetElementByID(SellOrdersTableID) != nil {
			p.loader.LoadOrderBook(scope.Symbol)
			w.OrderBook = true
		}
		if p.doc.GetElementByID(TradesTableID) != nil {
			p.loader.LoadTradeHistory(scope.Symbol)
			w.Trades = true
		}
	})
	p.log.Debug("page bootstrapped", "symbol", scope.Symbol,
		"field_visibility", w.FieldVisibility, "navigator", w.Navigator, "tabs", w.Tabs,
		"orderbook", w.OrderBook, "trades", w.Trades)
	return w
}

// LoadOrderBook starts another order-book load, superseding any in flight.
func (p *Page) LoadOrderBook(symbol string) {
	p.loop.Post(func() { p.loader.LoadOrderBook(symbol) })
}

// LoadTradeHistory starts another trade-history load, superseding any in flight.
func (p *Page) LoadTradeHistory(symbol string) {
	p.loop.Post(func() { p.loader.LoadTradeHistory(symbol) })
}

// Change sets the value of the element with id and fires its change event.
// It reports false when the element does not exist.
func (p *Page) Change(id, value string) bool {
	found := false
	p.loop.Do(func() {
		el := p.doc.GetElementByID(id)
		if el == nil {
			return
		}
		found = true
		el.SetValue(value)
		p.doc.Dispatch(el, EventChange)
	})
	return found
}

// SetValue sets the value of the element with id without firing events.
func (p *Page) SetValue(id, value string) bool {
	found := false
	p.loop.Do(func() {
		if el := p.doc.GetElementByID(id); el != nil {
			el.SetValue(value)
			found = true
		}
	})
	return found
}

// Click fires a click on the element with id.
func (p *Page) Click(id string) bool {
	found := false
	p.loop.Do(func() {
		if el := p.doc.GetElementByID(id); el != nil {
			p.doc.Dispatch(el, EventClick)
			found = true
		}
	})
	return found
}

// ClickTab fires a click on the tab whose data-tab is target.
func (p *Page) ClickTab(target string) bool {
	found := false
	p.loop.Do(func() {
		if p.tabs == nil {
			return
		}
		if tab := p.tabs.Tab(target); tab != nil {
			p.doc.Dispatch(tab, EventClick)
			found = true
		}
	})
	return found
}

// State reads the view state from the document.
func (p *Page) State() ViewState {
	var s ViewState
	p.loop.Do(func() {
		if p.tabs != nil {
			s.ActiveTab = p.tabs.Active()
		}
		if price := p.doc.GetElementByID(PriceID); price != nil {
			s.PriceFieldRequired = price.HasAttr("required")
		} else if sel := p.doc.GetElementByID(OrderVariantID); sel != nil {
			s.PriceFieldRequired = PriceFieldRequired(sel.Value())
		}
	})
	return s
}

// Wait blocks until every queued event and in-flight load has been handled.
// A load whose request never returns keeps Wait blocked until ctx ends.
func (p *Page) Wait(ctx context.Context) error {
	return p.loop.Wait(ctx)
}

// Render writes the current document.
func (p *Page) Render(w io.Writer) error {
	var err error
	p.loop.Do(func() { err = p.doc.Render(w) })
	return err
}

// Inspect runs fn on the loop with the document.
func (p *Page) Inspect(fn func(doc *dom.Document)) {
	p.loop.Do(func() { fn(p.doc) })
}

// Close cancels in-flight loads and stops the loop.
func (p *Page) Close() {
	p.cancel()
	p.loop.Close()
}
