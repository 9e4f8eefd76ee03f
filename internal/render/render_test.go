package render

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/tradeview/internal/models"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10", "10.00"},
		{"0.004", "0.00"},
		{"1999.999", "2000.00"},
		{"-1.005", "-1.01"},
		{"2000.5", "2000.50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestOrderRows(t *testing.T) {
	orders := []models.Order{
		{Price: decimal.RequireFromString("10.005"), Quantity: 3, Type: "BUY", Status: "OPEN", Timestamp: "t1"},
		{Price: decimal.RequireFromString("9.5"), Quantity: 12, Type: "BUY", Status: "OPEN", Timestamp: "t2"},
	}

	rows := OrderRows(orders, NoBuyOrders)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"10.01", "3", "BUY", "OPEN", "t1"}, rows[0].Cells)
	assert.Equal(t, []string{"9.50", "12", "BUY", "OPEN", "t2"}, rows[1].Cells)
	for _, r := range rows {
		assert.False(t, r.IsFallback())
	}
}

func TestOrderRows_Empty(t *testing.T) {
	for _, orders := range [][]models.Order{nil, {}} {
		rows := OrderRows(orders, NoSellOrders)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].IsFallback())
		assert.Equal(t, Columns, rows[0].Span)
		assert.Equal(t, []string{"No sell orders"}, rows[0].Cells)
	}
}

func TestTradeRows(t *testing.T) {
	trades := []models.Trade{
		{Timestamp: "2024-01-02 10:00:00", Price: decimal.RequireFromString("101.234"), Quantity: 4, BuyOrderID: "1", SellOrderID: "2"},
	}
	rows := TradeRows(trades)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"2024-01-02 10:00:00", "101.23", "4", "1", "2"}, rows[0].Cells)

	empty := TradeRows(nil)
	require.Len(t, empty, 1)
	assert.Equal(t, []string{NoTrades}, empty[0].Cells)
}

func TestOrderBookRows_SidesIndependent(t *testing.T) {
	snap := &models.OrderBookSnapshot{
		SellOrders: []models.Order{{Price: decimal.NewFromInt(5), Quantity: 1, Type: "SELL", Status: "OPEN", Timestamp: "t"}},
	}
	buys, sells := OrderBookRows(snap)
	require.Len(t, buys, 1)
	assert.Equal(t, []string{NoBuyOrders}, buys[0].Cells)
	require.Len(t, sells, 1)
	assert.False(t, sells[0].IsFallback())

	buys, sells = OrderBookRows(nil)
	assert.True(t, buys[0].IsFallback())
	assert.True(t, sells[0].IsFallback())
}
