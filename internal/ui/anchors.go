// Package ui wires the trading page: form field visibility, symbol
// navigation, tab switching and market-data loading into tables and charts.
package ui

// Element ids and classes the page script binds to. Each is optional; a
// missing anchor leaves its feature unwired.
const (
	OrderVariantID = "order_variant"
	PriceGroupID   = "price-group"
	PriceID        = "price"

	ViewButtonID = "view-btn"
	ViewSymbolID = "view-symbol"

	TabClass     = "tab"
	TabPaneClass = "tab-pane"
	TabTargetKey = "data-tab"
	ActiveClass  = "active"

	BuyOrdersTableID  = "buy-orders-table"
	SellOrdersTableID = "sell-orders-table"
	TradesTableID     = "trades-table"

	DepthChartID = "depth-chart"
	PriceChartID = "price-chart"
)

// Event types
const (
	EventChange = "change"
	EventClick  = "click"
)
