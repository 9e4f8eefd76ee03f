package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// ErrMalformedPayload is wrapped by every decode error caused by a response
// body that does not have the expected shape.
var ErrMalformedPayload = errors.New("malformed payload")

// Verbatim holds an identifier or timestamp exactly as the server sent it.
// The server may send either a JSON string or a JSON number.
type Verbatim string

// UnmarshalJSON accepts a string, a number or null.
func (v *Verbatim) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*v = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Verbatim(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", b)
	}
	*v = Verbatim(n.String())
	return nil
}

// MarshalJSON writes numeric text back as a number and everything else as a string.
func (v Verbatim) MarshalJSON() ([]byte, error) {
	if v != "" && json.Valid([]byte(v)) && isNumber(string(v)) {
		return []byte(v), nil
	}
	return json.Marshal(string(v))
}

func (v Verbatim) String() string { return string(v) }

func isNumber(s string) bool {
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

// Order represents a resting buy or sell order as published by the server
type Order struct {
	ID        Verbatim
	Price     decimal.Decimal
	Quantity  int64
	Type      string // "BUY"/"SELL" or the order variant, rendered as sent
	Status    string
	Timestamp Verbatim
}

type wireOrder struct {
	ID        Verbatim     `json:"id,omitempty"`
	Price     *json.Number `json:"price"`
	Quantity  *json.Number `json:"quantity"`
	Type      string       `json:"type"`
	Status    string       `json:"status"`
	Timestamp Verbatim     `json:"timestamp"`
}

// UnmarshalJSON requires price and quantity to be present.
func (o *Order) UnmarshalJSON(b []byte) error {
	var w wireOrder
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	price, err := requireDecimal("price", w.Price)
	if err != nil {
		return err
	}
	qty, err := requireInt("quantity", w.Quantity)
	if err != nil {
		return err
	}
	*o = Order{
		ID:        w.ID,
		Price:     price,
		Quantity:  qty,
		Type:      w.Type,
		Status:    w.Status,
		Timestamp: w.Timestamp,
	}
	return nil
}

// MarshalJSON writes the price as a JSON number.
func (o Order) MarshalJSON() ([]byte, error) {
	price := json.Number(o.Price.String())
	qty := json.Number(fmt.Sprint(o.Quantity))
	return json.Marshal(wireOrder{
		ID:        o.ID,
		Price:     &price,
		Quantity:  &qty,
		Type:      o.Type,
		Status:    o.Status,
		Timestamp: o.Timestamp,
	})
}

// Trade represents an executed trade
type Trade struct {
	Timestamp   Verbatim
	Price       decimal.Decimal
	Quantity    int64
	BuyOrderID  Verbatim
	SellOrderID Verbatim
}

type wireTrade struct {
	Timestamp   Verbatim     `json:"timestamp"`
	Price       *json.Number `json:"price"`
	Quantity    *json.Number `json:"quantity"`
	BuyOrderID  Verbatim     `json:"buy_order_id"`
	SellOrderID Verbatim     `json:"sell_order_id"`
}

// UnmarshalJSON requires price and quantity to be present.
func (t *Trade) UnmarshalJSON(b []byte) error {
	var w wireTrade
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	price, err := requireDecimal("price", w.Price)
	if err != nil {
		return err
	}
	qty, err := requireInt("quantity", w.Quantity)
	if err != nil {
		return err
	}
	*t = Trade{
		Timestamp:   w.Timestamp,
		Price:       price,
		Quantity:    qty,
		BuyOrderID:  w.BuyOrderID,
		SellOrderID: w.SellOrderID,
	}
	return nil
}

// MarshalJSON writes the price as a JSON number.
func (t Trade) MarshalJSON() ([]byte, error) {
	price := json.Number(t.Price.String())
	qty := json.Number(fmt.Sprint(t.Quantity))
	return json.Marshal(wireTrade{
		Timestamp:   t.Timestamp,
		Price:       &price,
		Quantity:    &qty,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
	})
}

// OrderBookSnapshot is the point-in-time book for one symbol. Each side keeps
// the order the server sent it in.
type OrderBookSnapshot struct {
	BuyOrders  []Order `json:"buy_orders"`
	SellOrders []Order `json:"sell_orders"`
}

// DecodeOrderBook parses an order-book response. The body must be a JSON object;
// missing or null sides decode as empty.
func DecodeOrderBook(r io.Reader) (*OrderBookSnapshot, error) {
	raw, err := readJSON(r, '{')
	if err != nil {
		return nil, fmt.Errorf("order book: %w", err)
	}
	var snap OrderBookSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("order book: %w: %v", ErrMalformedPayload, err)
	}
	return &snap, nil
}

// DecodeTrades parses a trade-history response. Unlike the order book the
// body is a bare JSON array.
func DecodeTrades(r io.Reader) ([]Trade, error) {
	raw, err := readJSON(r, '[')
	if err != nil {
		return nil, fmt.Errorf("trade history: %w", err)
	}
	trades := []Trade{}
	if err := json.Unmarshal(raw, &trades); err != nil {
		return nil, fmt.Errorf("trade history: %w: %v", ErrMalformedPayload, err)
	}
	return trades, nil
}

func readJSON(r io.Reader, open byte) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != open {
		return nil, fmt.Errorf("%w: expected JSON starting with %q", ErrMalformedPayload, open)
	}
	return raw, nil
}

func requireDecimal(field string, n *json.Number) (decimal.Decimal, error) {
	if n == nil {
		return decimal.Decimal{}, fmt.Errorf("missing %s", field)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", field, n.String(), err)
	}
	return d, nil
}

func requireInt(field string, n *json.Number) (int64, error) {
	if n == nil {
		return 0, fmt.Errorf("missing %s", field)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, n.String(), err)
	}
	return i, nil
}
