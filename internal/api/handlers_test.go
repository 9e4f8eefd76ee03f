package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/tradeview/internal/chart"
	"github.com/xtrntr/tradeview/internal/dom"
	"github.com/xtrntr/tradeview/internal/exchange"
	"github.com/xtrntr/tradeview/internal/marketdata"
	"github.com/xtrntr/tradeview/internal/metrics"
	"github.com/xtrntr/tradeview/internal/models"
	"github.com/xtrntr/tradeview/internal/ui"
)

type testEnv struct {
	ex      *exchange.Exchange
	handler *Handler
	srv     *httptest.Server
	client  *http.Client
}

// newTestEnv serves the router on an httptest server whose pages load
// market data back from the same server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ts := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	ex := exchange.NewExchange(exchange.WithClock(func() time.Time { return ts }))
	ex.List("INFY")
	ex.List("RELIANCE")

	reg := prometheus.NewRegistry()
	h := NewHandler(ex, nil, metrics.New(reg))
	h.RenderTimeout = 2 * time.Second
	srv := httptest.NewServer(NewRouter(h, reg))
	t.Cleanup(srv.Close)
	h.Data = marketdata.NewClient(srv.URL)

	return &testEnv{
		ex:      ex,
		handler: h,
		srv:     srv,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) page(t *testing.T, path string) *dom.Document {
	t.Helper()
	resp := e.get(t, path)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	doc, err := dom.Parse(resp.Body)
	require.NoError(t, err)
	return doc
}

func (e *testEnv) place(t *testing.T, side, variant, price string, qty int64) {
	t.Helper()
	req := exchange.OrderRequest{Symbol: "INFY", Side: side, Variant: variant, Quantity: qty}
	if price != "" {
		req.Price = decimal.RequireFromString(price)
	}
	_, _, _, err := e.ex.PlaceOrder(req)
	require.NoError(t, err)
}

func rows(t *testing.T, doc *dom.Document, id string) [][]string {
	t.Helper()
	table := doc.GetElementByID(id)
	require.NotNil(t, table, id)
	body := table.Find("tbody")
	require.NotNil(t, body)
	var out [][]string
	for _, tr := range body.Children() {
		var cells []string
		for _, td := range tr.Children() {
			cells = append(cells, td.Text())
		}
		out = append(out, cells)
	}
	return out
}

func chartOf(t *testing.T, doc *dom.Document, id string) (chart.Config, bool) {
	t.Helper()
	canvas := doc.GetElementByID(id)
	require.NotNil(t, canvas, id)
	raw, ok := canvas.Attr(ui.ChartAttr)
	var cfg chart.Config
	if ok {
		require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	}
	return cfg, ok
}

func TestGetOrderBook(t *testing.T) {
	env := newTestEnv(t)
	env.place(t, exchange.Buy, exchange.Limit, "1500", 3)
	env.place(t, exchange.Sell, exchange.Limit, "1510", 2)

	resp := env.get(t, "/api/orderbook/INFY")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	snap, err := models.DecodeOrderBook(resp.Body)
	require.NoError(t, err)
	require.Len(t, snap.BuyOrders, 1)
	require.Len(t, snap.SellOrders, 1)
	assert.Equal(t, "1500", snap.BuyOrders[0].Price.String())
	assert.Equal(t, int64(2), snap.SellOrders[0].Quantity)
}

func TestGetOrderBook_UnknownSymbol(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/orderbook/NOPE")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"buy_orders": [], "sell_orders": []}`, string(body))
}

func TestGetTrades(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/trades/INFY")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))

	env.place(t, exchange.Buy, exchange.Limit, "1500", 3)
	env.place(t, exchange.Sell, exchange.Limit, "1500", 2)

	resp = env.get(t, "/api/trades/INFY")
	trades, err := models.DecodeTrades(resp.Body)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(2), trades[0].Quantity)
	assert.Equal(t, models.Verbatim("1"), trades[0].BuyOrderID)
	assert.Equal(t, models.Verbatim("2"), trades[0].SellOrderID)
}

func TestGetSymbols(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/symbols", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var symbols []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&symbols))
	assert.Equal(t, []string{"INFY", "RELIANCE"}, symbols)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		name           string
		form           url.Values
		expectedStatus int
		expectedBuys   int
	}{
		{
			name:           "Limit",
			form:           url.Values{"order_type": {"BUY"}, "order_variant": {"LIMIT"}, "price": {"1500.25"}, "quantity": {"3"}, "symbol": {"INFY"}},
			expectedStatus: http.StatusSeeOther,
			expectedBuys:   1,
		},
		{
			name:           "MarketWithoutPrice",
			form:           url.Values{"order_type": {"BUY"}, "order_variant": {"MARKET"}, "price": {""}, "quantity": {"3"}, "symbol": {"INFY"}},
			expectedStatus: http.StatusSeeOther,
		},
		{
			name:           "LowercaseSide",
			form:           url.Values{"order_type": {"buy"}, "order_variant": {"limit"}, "price": {"10"}, "quantity": {"1"}, "symbol": {"INFY"}},
			expectedStatus: http.StatusSeeOther,
			expectedBuys:   1,
		},
		{
			name:           "BadQuantity",
			form:           url.Values{"order_type": {"BUY"}, "order_variant": {"LIMIT"}, "price": {"10"}, "quantity": {"1.5"}, "symbol": {"INFY"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "BadPrice",
			form:           url.Values{"order_type": {"BUY"}, "order_variant": {"LIMIT"}, "price": {"abc"}, "quantity": {"1"}, "symbol": {"INFY"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "UnknownVariant",
			form:           url.Values{"order_type": {"BUY"}, "order_variant": {"GTC"}, "price": {"10"}, "quantity": {"1"}, "symbol": {"INFY"}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			resp := env.postForm(t, "/place_order", tt.form)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusSeeOther {
				assert.Equal(t, "/results?symbol=INFY", resp.Header.Get("Location"))
			}
			assert.Len(t, env.ex.OrderBook("INFY").BuyOrders, tt.expectedBuys)
		})
	}
}

func TestResetOrderBook(t *testing.T) {
	env := newTestEnv(t)
	env.place(t, exchange.Buy, exchange.Limit, "1500", 3)

	resp := env.postForm(t, "/reset_orderbook", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Empty(t, env.ex.OrderBook("INFY").BuyOrders)
	assert.Equal(t, []string{"INFY", "RELIANCE"}, env.ex.Symbols())
}

func TestOrderBookPage(t *testing.T) {
	env := newTestEnv(t)
	env.place(t, exchange.Buy, exchange.Limit, "10.005", 3)

	doc := env.page(t, "/orderbook/INFY")

	assert.Equal(t, [][]string{{"10.01", "3", "BUY", "ACTIVE", "2024-03-01 09:15:00"}}, rows(t, doc, ui.BuyOrdersTableID))
	assert.Equal(t, [][]string{{"No sell orders"}}, rows(t, doc, ui.SellOrdersTableID))

	td := doc.GetElementByID(ui.SellOrdersTableID).Find("td")
	span, _ := td.Attr("colspan")
	assert.Equal(t, "5", span)

	cfg, ok := chartOf(t, doc, ui.DepthChartID)
	require.True(t, ok, "depth chart is drawn")
	assert.Equal(t, "bar", cfg.Type)
	require.Len(t, cfg.Data.Datasets, 2)
	assert.Equal(t, "Buy Orders", cfg.Data.Datasets[0].Label)
}

func TestOrderBookPage_ChartsDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.handler.Charts = false
	env.place(t, exchange.Buy, exchange.Limit, "10", 1)

	doc := env.page(t, "/orderbook/INFY")
	assert.Len(t, rows(t, doc, ui.BuyOrdersTableID), 1)
	_, ok := chartOf(t, doc, ui.DepthChartID)
	assert.False(t, ok)
}

func TestTradesPage(t *testing.T) {
	env := newTestEnv(t)

	doc := env.page(t, "/trades/INFY")
	assert.Equal(t, [][]string{{"No trades"}}, rows(t, doc, ui.TradesTableID))
	_, ok := chartOf(t, doc, ui.PriceChartID)
	assert.False(t, ok, "no price chart without trades")

	env.place(t, exchange.Sell, exchange.Limit, "1500.5", 2)
	env.place(t, exchange.Buy, exchange.Market, "", 2)

	doc = env.page(t, "/trades/INFY")
	assert.Equal(t, [][]string{{"2024-03-01 09:15:00", "1500.50", "2", "2", "1"}}, rows(t, doc, ui.TradesTableID))
	cfg, ok := chartOf(t, doc, ui.PriceChartID)
	require.True(t, ok)
	assert.Equal(t, "line", cfg.Type)
	assert.Equal(t, []float64{1500.5}, cfg.Data.Datasets[0].Data)
}

func TestPage_MarketDataUnavailable(t *testing.T) {
	env := newTestEnv(t)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer down.Close()
	env.handler.Data = marketdata.NewClient(down.URL)

	doc := env.page(t, "/orderbook/INFY")
	assert.Empty(t, rows(t, doc, ui.BuyOrdersTableID))
	assert.Empty(t, rows(t, doc, ui.SellOrdersTableID))
}

func TestIndexPage_ReplaysOrderVariant(t *testing.T) {
	env := newTestEnv(t)

	doc := env.page(t, "/")
	assert.True(t, doc.GetElementByID(ui.PriceID).HasAttr("required"))
	assert.Len(t, doc.GetElementByID("symbols").Children(), 2)

	doc = env.page(t, "/?order_variant=MARKET")
	assert.Equal(t, "none", doc.GetElementByID(ui.PriceGroupID).Display())
	assert.False(t, doc.GetElementByID(ui.PriceID).HasAttr("required"))
	assert.Equal(t, "MARKET", doc.GetElementByID(ui.OrderVariantID).Value())

	doc = env.page(t, "/?order_variant=IOC")
	assert.Equal(t, "block", doc.GetElementByID(ui.PriceGroupID).Display())
	assert.True(t, doc.GetElementByID(ui.PriceID).HasAttr("required"))
}

func TestResultsPage_ReplaysTab(t *testing.T) {
	env := newTestEnv(t)
	env.place(t, exchange.Buy, exchange.Limit, "10", 1)

	doc := env.page(t, "/results?symbol=INFY")
	assert.True(t, doc.GetElementByID("orderbook-pane").HasClass(ui.ActiveClass))
	assert.Len(t, rows(t, doc, ui.BuyOrdersTableID), 1)
	assert.Equal(t, [][]string{{"No trades"}}, rows(t, doc, ui.TradesTableID))

	doc = env.page(t, "/results?symbol=INFY&tab=trades-pane")
	assert.False(t, doc.GetElementByID("orderbook-pane").HasClass(ui.ActiveClass))
	assert.True(t, doc.GetElementByID("trades-pane").HasClass(ui.ActiveClass))

	var active []string
	for _, tab := range doc.ElementsByClass(ui.TabClass) {
		if tab.HasClass(ui.ActiveClass) {
			v, _ := tab.Attr(ui.TabTargetKey)
			active = append(active, v)
		}
	}
	assert.Equal(t, []string{"trades-pane"}, active)
}

func TestView(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/view?symbol=INFY")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/orderbook/INFY", resp.Header.Get("Location"))

	resp = env.postForm(t, "/view", url.Values{"symbol": {"TATASTEEL"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/orderbook/TATASTEEL", resp.Header.Get("Location"))

	doc := env.page(t, "/view?symbol=")
	flash := doc.GetElementByID(flashID)
	assert.Equal(t, ui.EmptySymbolAlert, flash.Text())
	assert.Equal(t, "block", flash.Display())
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.postForm(t, "/place_order", url.Values{"order_type": {"BUY"}, "order_variant": {"LIMIT"}, "price": {"10"}, "quantity": {"1"}, "symbol": {"INFY"}})
	env.page(t, "/orderbook/INFY")

	resp := env.get(t, "/metrics")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `tradeview_orders_placed_total{variant="LIMIT"} 1`), text)
	assert.True(t, strings.Contains(text, `tradeview_loads_total{outcome="ok",target="orderbook"} 1`), text)
}

func TestStatic(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/static/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t)
	env.place(t, exchange.Buy, exchange.Limit, "1500", 3)

	del := func(id string) *http.Response {
		req, err := http.NewRequest(http.MethodDelete, env.srv.URL+"/api/orders/"+id, nil)
		require.NoError(t, err)
		resp, err := env.client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	tests := []struct {
		name           string
		orderID        string
		expectedStatus int
	}{
		{"CancelOpenOrder", "1", http.StatusOK},
		{"AlreadyCanceled", "1", http.StatusNotFound},
		{"NonExistentOrder", "999", http.StatusNotFound},
		{"InvalidID", "abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, del(tt.orderID).StatusCode)
		})
	}
	assert.Empty(t, env.ex.OrderBook("INFY").BuyOrders)
}

func TestViewOrderBook(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/view_orderbook", url.Values{"view_symbol": {"INFY"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/results?symbol=INFY", resp.Header.Get("Location"))

	resp = env.postForm(t, "/view_orderbook", url.Values{"view_symbol": {""}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}
