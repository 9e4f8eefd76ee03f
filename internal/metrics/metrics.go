// Package metrics holds the prometheus collectors for page loads and the
// development exchange.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	loads  *prometheus.CounterVec
	orders *prometheus.CounterVec
	trades prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeview",
			Name:      "loads_total",
			Help:      "Market-data loads by target and outcome.",
		}, []string{"target", "outcome"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeview",
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the development exchange, by variant.",
		}, []string{"variant"}),
		trades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradeview",
			Name:      "trades_executed_total",
			Help:      "Trades executed by the development exchange.",
		}),
	}
	reg.MustRegister(m.loads, m.orders, m.trades)
	return m
}

func (m *Metrics) LoadFinished(target, outcome string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(target, outcome).Inc()
}

func (m *Metrics) OrderPlaced(variant string, trades int) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(variant).Inc()
	m.trades.Add(float64(trades))
}
