package ui

import (
	"encoding/json"
	"fmt"

	"github.com/xtrntr/tradeview/internal/chart"
	"github.com/xtrntr/tradeview/internal/dom"
)

// ChartSink hands a chart description to the charting library for a canvas.
// A page without a sink has no charting capability and draws nothing.
type ChartSink interface {
	Draw(canvas *dom.Element, cfg chart.Config) error
}

// ChartAttr is the canvas attribute AttrSink writes the description to.
const ChartAttr = "data-chart"

// AttrSink stores each description as JSON on its canvas so the client-side
// charting library can pick it up once the page is delivered.
type AttrSink struct{}

func (AttrSink) Draw(canvas *dom.Element, cfg chart.Config) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	canvas.SetAttr(ChartAttr, string(b))
	return nil
}
