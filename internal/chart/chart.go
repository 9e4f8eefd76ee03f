// Package chart shapes market data into Chart.js chart descriptions.
package chart

import (
	"github.com/xtrntr/tradeview/internal/models"
)

// Chart types
const (
	TypeBar  = "bar"
	TypeLine = "line"
)

// Dataset labels
const (
	BuyOrdersLabel  = "Buy Orders"
	SellOrdersLabel = "Sell Orders"
	TradePriceLabel = "Trade Price"
)

// Config is a chart description consumed by the client-side charting library.
type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

// Data holds the label axis and the series drawn over it.
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one series. Data is aligned index-for-index with Data.Labels.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
	Tension         float64   `json:"tension,omitempty"`
}

type Options struct {
	Responsive bool   `json:"responsive"`
	Scales     Scales `json:"scales"`
}

type Scales struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

type Axis struct {
	Title       AxisTitle `json:"title"`
	BeginAtZero bool      `json:"beginAtZero,omitempty"`
}

type AxisTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

func axis(title string) Axis {
	return Axis{Title: AxisTitle{Display: true, Text: title}}
}

// Depth juxtaposes buy and sell quantities over the label axis
// buy prices followed by sell prices. The buy series is zero at every sell
// position and the sell series is zero at every buy position; levels that
// share a price are not merged.
func Depth(snap *models.OrderBookSnapshot) Config {
	var buys, sells []models.Order
	if snap != nil {
		buys, sells = snap.BuyOrders, snap.SellOrders
	}
	n := len(buys) + len(sells)

	labels := make([]string, 0, n)
	buyQty := make([]float64, n)
	sellQty := make([]float64, n)
	for i, o := range buys {
		labels = append(labels, o.Price.String())
		buyQty[i] = float64(o.Quantity)
	}
	for i, o := range sells {
		labels = append(labels, o.Price.String())
		sellQty[len(buys)+i] = float64(o.Quantity)
	}

	y := axis("Quantity")
	y.BeginAtZero = true
	return Config{
		Type: TypeBar,
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{
				{
					Label:           BuyOrdersLabel,
					Data:            buyQty,
					BackgroundColor: "rgba(75, 192, 192, 0.6)",
					BorderColor:     "rgba(75, 192, 192, 1)",
					BorderWidth:     1,
				},
				{
					Label:           SellOrdersLabel,
					Data:            sellQty,
					BackgroundColor: "rgba(255, 99, 132, 0.6)",
					BorderColor:     "rgba(255, 99, 132, 1)",
					BorderWidth:     1,
				},
			},
		},
		Options: Options{
			Responsive: true,
			Scales:     Scales{X: axis("Price"), Y: y},
		},
	}
}

// PriceHistory draws trade price over timestamp in the order the trades
// were received. Timestamps are neither sorted nor de-duplicated.
func PriceHistory(trades []models.Trade) Config {
	labels := make([]string, len(trades))
	prices := make([]float64, len(trades))
	for i, t := range trades {
		labels[i] = t.Timestamp.String()
		prices[i] = t.Price.InexactFloat64()
	}
	return Config{
		Type: TypeLine,
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           TradePriceLabel,
				Data:            prices,
				BackgroundColor: "rgba(54, 162, 235, 0.2)",
				BorderColor:     "rgba(54, 162, 235, 1)",
				BorderWidth:     2,
				Tension:         0.1,
			}},
		},
		Options: Options{
			Responsive: true,
			Scales:     Scales{X: axis("Time"), Y: axis("Price")},
		},
	}
}
