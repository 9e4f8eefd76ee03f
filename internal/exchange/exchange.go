package exchange

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtrntr/tradeview/internal/models"
)

// Sides
const (
	Buy  = "BUY"
	Sell = "SELL"
)

// Order variants
const (
	Limit  = "LIMIT"
	Market = "MARKET"
	IOC    = "IOC"
	FOK    = "FOK"
)

// Order statuses
const (
	StatusActive          = "ACTIVE"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
	StatusCancelled       = "CANCELLED"
)

// TimeLayout formats order and trade timestamps.
const TimeLayout = "2006-01-02 15:04:05"

var (
	ErrInvalidOrder = errors.New("invalid order")
	ErrUnknownOrder = errors.New("order not found or not open")
)

// OrderRequest is a new order as submitted from the order form.
type OrderRequest struct {
	Symbol   string
	Side     string
	Variant  string
	Price    decimal.Decimal // ignored for MARKET
	Quantity int64
}

// Validate checks the request before it reaches the book.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol required", ErrInvalidOrder)
	}
	if r.Side != Buy && r.Side != Sell {
		return fmt.Errorf("%w: side must be %s or %s", ErrInvalidOrder, Buy, Sell)
	}
	switch r.Variant {
	case Limit, IOC, FOK:
		if !r.Price.IsPositive() {
			return fmt.Errorf("%w: price must be positive", ErrInvalidOrder)
		}
	case Market:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidOrder, r.Variant)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	return nil
}

type order struct {
	id        int
	side      string
	variant   string
	price     decimal.Decimal
	quantity  int64
	filled    int64
	status    string
	createdAt time.Time
	seq       uint64
}

func (o *order) remaining() int64 { return o.quantity - o.filled }

func (o *order) updateStatus() {
	switch {
	case o.filled >= o.quantity:
		o.status = StatusFilled
	case o.filled > 0:
		o.status = StatusPartiallyFilled
	default:
		o.status = StatusActive
	}
}

// crosses reports whether a resting order at price can trade with o.
func (o *order) crosses(price decimal.Decimal) bool {
	if o.variant == Market {
		return true
	}
	if o.side == Buy {
		return price.LessThanOrEqual(o.price)
	}
	return price.GreaterThanOrEqual(o.price)
}

// PriceBand bounds the price of LIMIT orders on a symbol to Ref plus or minus
// Pct percent, inclusive.
type PriceBand struct {
	Ref decimal.Decimal
	Pct decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

func (b PriceBand) limits() (decimal.Decimal, decimal.Decimal) {
	width := b.Ref.Mul(b.Pct).Div(hundred)
	return b.Ref.Sub(width), b.Ref.Add(width)
}

type book struct {
	buys   []*order // highest price first, then earliest
	sells  []*order // lowest price first, then earliest
	trades []models.Trade
}

func (b *book) add(o *order) {
	if o.side == Buy {
		b.buys = append(b.buys, o)
		sort.SliceStable(b.buys, func(i, j int) bool {
			if b.buys[i].price.Equal(b.buys[j].price) {
				return b.buys[i].seq < b.buys[j].seq
			}
			return b.buys[i].price.GreaterThan(b.buys[j].price)
		})
		return
	}
	b.sells = append(b.sells, o)
	sort.SliceStable(b.sells, func(i, j int) bool {
		if b.sells[i].price.Equal(b.sells[j].price) {
			return b.sells[i].seq < b.sells[j].seq
		}
		return b.sells[i].price.LessThan(b.sells[j].price)
	})
}

func (b *book) opposite(side string) *[]*order {
	if side == Buy {
		return &b.sells
	}
	return &b.buys
}

// Exchange is an in-memory set of per-symbol books with price-time matching.
// It backs the development server; nothing is persisted.
type Exchange struct {
	mu     sync.Mutex
	books  map[string]*book
	bands  map[string]PriceBand
	open   map[int]string // resting order id -> symbol
	nextID int
	seq    uint64
	now    func() time.Time
}

// Option configures an Exchange
type Option func(*Exchange)

// WithClock replaces time.Now for order and trade timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Exchange) { e.now = now }
}

// WithPriceBand lists symbol and rejects LIMIT orders priced outside band.
func WithPriceBand(symbol string, band PriceBand) Option {
	return func(e *Exchange) {
		e.bands[symbol] = band
		e.bookFor(symbol)
	}
}

// NewExchange creates an empty exchange
func NewExchange(opts ...Option) *Exchange {
	e := &Exchange{
		books: make(map[string]*book),
		bands: make(map[string]PriceBand),
		open:  make(map[int]string),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// List makes symbol known with an empty book.
func (e *Exchange) List(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bookFor(symbol)
}

func (e *Exchange) bookFor(symbol string) *book {
	b, ok := e.books[symbol]
	if !ok {
		b = &book{}
		e.books[symbol] = b
	}
	return b
}

// PlaceOrder matches a new order and rests any LIMIT remainder. MARKET and
// IOC remainders are cancelled; a FOK that cannot fill completely trades
// nothing. A LIMIT priced outside its symbol's band is rejected. It returns
// the order id, its final status and the trades executed.
func (e *Exchange) PlaceOrder(req OrderRequest) (int, string, []models.Trade, error) {
	if err := req.Validate(); err != nil {
		return 0, "", nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if band, ok := e.bands[req.Symbol]; ok && req.Variant == Limit {
		lower, upper := band.limits()
		if req.Price.LessThan(lower) || req.Price.GreaterThan(upper) {
			return 0, "", nil, fmt.Errorf("%w: price %s outside band %s to %s for %s",
				ErrInvalidOrder, req.Price, lower, upper, req.Symbol)
		}
	}

	e.nextID++
	e.seq++
	o := &order{
		id:        e.nextID,
		side:      req.Side,
		variant:   req.Variant,
		price:     req.Price,
		quantity:  req.Quantity,
		status:    StatusActive,
		createdAt: e.now(),
		seq:       e.seq,
	}
	if o.variant == Market {
		o.price = decimal.Zero
	}
	b := e.bookFor(req.Symbol)

	if o.variant == FOK && e.available(b, o) < o.quantity {
		o.status = StatusCancelled
		return o.id, o.status, nil, nil
	}

	trades := e.match(b, o)

	switch {
	case o.remaining() == 0:
	case o.variant == Limit:
		b.add(o)
		e.open[o.id] = req.Symbol
	case o.filled == 0:
		o.status = StatusCancelled
	}
	return o.id, o.status, trades, nil
}

func (e *Exchange) available(b *book, o *order) int64 {
	var total int64
	for _, r := range *b.opposite(o.side) {
		if !o.crosses(r.price) {
			break
		}
		total += r.remaining()
	}
	return total
}

func (e *Exchange) match(b *book, o *order) []models.Trade {
	var trades []models.Trade
	opp := b.opposite(o.side)
	for len(*opp) > 0 && o.remaining() > 0 {
		resting := (*opp)[0]
		if !o.crosses(resting.price) {
			break
		}
		qty := min(o.remaining(), resting.remaining())
		resting.filled += qty
		o.filled += qty
		resting.updateStatus()

		buyID, sellID := o.id, resting.id
		if o.side == Sell {
			buyID, sellID = resting.id, o.id
		}
		trade := models.Trade{
			Timestamp:   models.Verbatim(e.now().Format(TimeLayout)),
			Price:       resting.price,
			Quantity:    qty,
			BuyOrderID:  models.Verbatim(strconv.Itoa(buyID)),
			SellOrderID: models.Verbatim(strconv.Itoa(sellID)),
		}
		trades = append(trades, trade)
		b.trades = append(b.trades, trade)

		if resting.remaining() == 0 {
			*opp = (*opp)[1:]
			delete(e.open, resting.id)
		}
	}
	o.updateStatus()
	return trades
}

// CancelOrder removes a resting order from its book.
func (e *Exchange) CancelOrder(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	symbol, ok := e.open[id]
	if !ok {
		return ErrUnknownOrder
	}
	b := e.books[symbol]
	for _, side := range []*[]*order{&b.buys, &b.sells} {
		for i, o := range *side {
			if o.id == id {
				o.status = StatusCancelled
				*side = append((*side)[:i], (*side)[i+1:]...)
				delete(e.open, id)
				return nil
			}
		}
	}
	delete(e.open, id)
	return ErrUnknownOrder
}

// OrderBook returns the resting orders for symbol, best price first on each
// side. Quantities are what remains open.
func (e *Exchange) OrderBook(symbol string) models.OrderBookSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := models.OrderBookSnapshot{BuyOrders: []models.Order{}, SellOrders: []models.Order{}}
	b, ok := e.books[symbol]
	if !ok {
		return snap
	}
	for _, o := range b.buys {
		snap.BuyOrders = append(snap.BuyOrders, publish(o))
	}
	for _, o := range b.sells {
		snap.SellOrders = append(snap.SellOrders, publish(o))
	}
	return snap
}

func publish(o *order) models.Order {
	return models.Order{
		ID:        models.Verbatim(strconv.Itoa(o.id)),
		Price:     o.price,
		Quantity:  o.remaining(),
		Type:      o.side,
		Status:    o.status,
		Timestamp: models.Verbatim(o.createdAt.Format(TimeLayout)),
	}
}

// Trades returns the trades executed for symbol in execution order.
func (e *Exchange) Trades(symbol string) []models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.books[symbol]
	if !ok {
		return []models.Trade{}
	}
	return append([]models.Trade{}, b.trades...)
}

// Symbols lists every symbol with a book, sorted.
func (e *Exchange) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	symbols := make([]string, 0, len(e.books))
	for s := range e.books {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Reset drops every order and trade, keeping the listed symbols and their
// price bands.
func (e *Exchange) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for s := range e.books {
		e.books[s] = &book{}
	}
	e.open = make(map[int]string)
}
