// Package render projects market-data records into table row descriptors.
// It never touches a document; see ui for the adapter that applies rows.
package render

import (
	"github.com/shopspring/decimal"
	"github.com/xtrntr/tradeview/internal/models"
)

// Columns is the width of every market-data table.
const Columns = 5

// Fallback markers for empty tables
const (
	NoBuyOrders  = "No buy orders"
	NoSellOrders = "No sell orders"
	NoTrades     = "No trades"
)

// Row describes one table row. A fallback row has a single cell and Span set
// to the number of columns it covers.
type Row struct {
	Cells []string
	Span  int
}

// IsFallback reports whether the row stands in for an empty sequence.
func (r Row) IsFallback() bool { return r.Span > 0 }

// Fallback returns the single row shown in place of an empty table.
func Fallback(text string) Row {
	return Row{Cells: []string{text}, Span: Columns}
}

// FormatPrice renders a monetary value with exactly two decimals, rounding
// half away from zero on the value as the server wrote it.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// OrderRows yields price, quantity, type, status, timestamp per order, or a
// single fallback row carrying empty when there are no orders.
func OrderRows(orders []models.Order, empty string) []Row {
	if len(orders) == 0 {
		return []Row{Fallback(empty)}
	}
	rows := make([]Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, Row{Cells: []string{
			FormatPrice(o.Price),
			formatInt(o.Quantity),
			o.Type,
			o.Status,
			o.Timestamp.String(),
		}})
	}
	return rows
}

// TradeRows yields timestamp, price, quantity, buy id, sell id per trade.
func TradeRows(trades []models.Trade) []Row {
	if len(trades) == 0 {
		return []Row{Fallback(NoTrades)}
	}
	rows := make([]Row, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, Row{Cells: []string{
			t.Timestamp.String(),
			FormatPrice(t.Price),
			formatInt(t.Quantity),
			t.BuyOrderID.String(),
			t.SellOrderID.String(),
		}})
	}
	return rows
}

// OrderBookRows renders both sides independently.
func OrderBookRows(snap *models.OrderBookSnapshot) (buys, sells []Row) {
	if snap == nil {
		return OrderRows(nil, NoBuyOrders), OrderRows(nil, NoSellOrders)
	}
	return OrderRows(snap.BuyOrders, NoBuyOrders), OrderRows(snap.SellOrders, NoSellOrders)
}

func formatInt(n int64) string {
	return decimal.NewFromInt(n).String()
}
