package api

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xtrntr/tradeview/internal/dom"
	"github.com/xtrntr/tradeview/internal/ui"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// flashID is the index element alerts are written into.
const flashID = "flash"

type pageData struct {
	Symbol  string
	Symbols []string
}

// Index serves the order form and the symbol navigator. An order_variant
// query parameter is replayed as a change of the variant selector.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "index.html", pageData{Symbols: h.Exchange.Symbols()}, nil)
}

// OrderBookPage serves the order book tables and depth chart for a symbol.
func (h *Handler) OrderBookPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "orderbook.html", pageData{Symbol: chi.URLParam(r, "symbol")}, nil)
}

// TradesPage serves the trade history table and price chart for a symbol.
func (h *Handler) TradesPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "trades.html", pageData{Symbol: chi.URLParam(r, "symbol")}, nil)
}

// ResultsPage serves the book and the trades of a symbol under two tabs. A
// tab query parameter is replayed as a click on that tab.
func (h *Handler) ResultsPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "results.html", pageData{Symbol: r.URL.Query().Get("symbol")}, nil)
}

// View presses the index page's view button with the submitted symbol. It
// redirects wherever the page navigates, or serves the index with the alert
// the page raised.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	symbol := r.FormValue("symbol")
	h.renderPage(w, r, "index.html", pageData{Symbols: h.Exchange.Symbols()}, func(p *ui.Page, win *ui.RecordingWindow) bool {
		p.SetValue(ui.ViewSymbolID, symbol)
		p.Click(ui.ViewButtonID)
		if win.Location != "" {
			http.Redirect(w, r, win.Location, http.StatusSeeOther)
			return false
		}
		if len(win.Alerts) > 0 {
			p.Inspect(func(doc *dom.Document) {
				if flash := doc.GetElementByID(flashID); flash != nil {
					flash.SetText(win.Alerts[len(win.Alerts)-1])
					flash.SetDisplay("block")
				}
			})
		}
		return true
	})
}

// renderPage executes a template, runs the page bootstrapper over it against
// the market-data client and writes the resulting document. act runs after
// the query replay; returning false means it already answered the request.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, name string, data pageData, act func(*ui.Page, *ui.RecordingWindow) bool) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.Log.Error("failed to execute template", "template", name, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	doc, err := dom.Parse(&buf)
	if err != nil {
		h.Log.Error("failed to parse page", "template", name, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	win := &ui.RecordingWindow{}
	opts := []ui.PageOption{
		ui.WithWindow(win),
		ui.WithLogger(h.Log),
		ui.WithMetrics(h.Metrics),
	}
	if h.Charts {
		opts = append(opts, ui.WithCharts(ui.AttrSink{}))
	}
	page := ui.NewPage(doc, h.Data, opts...)
	defer page.Close()

	scope := ui.Scope{Symbol: data.Symbol}
	if h.Data == nil {
		scope.Symbol = ""
	}
	page.Bootstrap(scope)

	q := r.URL.Query()
	if v := q.Get("order_variant"); v != "" {
		page.Change(ui.OrderVariantID, v)
	}
	if t := q.Get("tab"); t != "" {
		page.ClickTab(t)
	}
	if act != nil && !act(page, win) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.RenderTimeout)
	defer cancel()
	if err := page.Wait(ctx); err != nil {
		h.Log.Warn("page rendered before its loads finished", "template", name, "symbol", data.Symbol, "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		h.Log.Error("failed to write page", "template", name, "error", err)
	}
}
