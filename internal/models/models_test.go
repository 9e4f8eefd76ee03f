package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrderBook(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
		expectBuys  int
		expectSells int
	}{
		{
			name:       "Success",
			body:       `{"buy_orders":[{"price":10.005,"quantity":3,"type":"BUY","status":"OPEN","timestamp":"t1"}],"sell_orders":[]}`,
			expectBuys: 1,
		},
		{
			name: "MissingSides",
			body: `{}`,
		},
		{
			name: "NullSides",
			body: `{"buy_orders":null,"sell_orders":null}`,
		},
		{
			name:        "BareArray",
			body:        `[]`,
			expectError: true,
		},
		{
			name:        "MissingPrice",
			body:        `{"buy_orders":[{"quantity":3}]}`,
			expectError: true,
		},
		{
			name:        "FractionalQuantity",
			body:        `{"sell_orders":[{"price":1,"quantity":1.5}]}`,
			expectError: true,
		},
		{
			name:        "SideNotArray",
			body:        `{"buy_orders":"none"}`,
			expectError: true,
		},
		{
			name:        "NotJSON",
			body:        `<html></html>`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeOrderBook(strings.NewReader(tt.body))
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedPayload)
				return
			}
			require.NoError(t, err)
			assert.Len(t, snap.BuyOrders, tt.expectBuys)
			assert.Len(t, snap.SellOrders, tt.expectSells)
		})
	}
}

func TestDecodeOrderBook_KeepsLiteralPrice(t *testing.T) {
	snap, err := DecodeOrderBook(strings.NewReader(`{"buy_orders":[{"id":7,"price":10.005,"quantity":3,"type":"BUY","status":"OPEN","timestamp":1700000000}]}`))
	require.NoError(t, err)
	require.Len(t, snap.BuyOrders, 1)

	o := snap.BuyOrders[0]
	assert.True(t, o.Price.Equal(decimal.RequireFromString("10.005")))
	assert.Equal(t, int64(3), o.Quantity)
	assert.Equal(t, Verbatim("7"), o.ID)
	assert.Equal(t, Verbatim("1700000000"), o.Timestamp)
}

func TestDecodeTrades(t *testing.T) {
	trades, err := DecodeTrades(strings.NewReader(`[{"timestamp":"2024-01-02 10:00:00","price":101.5,"quantity":2,"buy_order_id":1,"sell_order_id":"s-2"}]`))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, Verbatim("1"), trades[0].BuyOrderID)
	assert.Equal(t, Verbatim("s-2"), trades[0].SellOrderID)
	assert.Equal(t, "101.5", trades[0].Price.String())

	empty, err := DecodeTrades(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeTrades(strings.NewReader(`{"trades":[]}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodeTrades(strings.NewReader(`[{"timestamp":"t"}]`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestOrder_MarshalJSON(t *testing.T) {
	o := Order{
		ID:        "12",
		Price:     decimal.RequireFromString("2000.50"),
		Quantity:  10,
		Type:      "LIMIT",
		Status:    "ACTIVE",
		Timestamp: "2024-01-02 10:00:00",
	}
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":12,"price":2000.5,"quantity":10,"type":"LIMIT","status":"ACTIVE","timestamp":"2024-01-02 10:00:00"}`, string(b))
}
