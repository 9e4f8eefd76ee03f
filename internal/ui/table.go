package ui

import (
	"strconv"

	"github.com/xtrntr/tradeview/internal/dom"
	"github.com/xtrntr/tradeview/internal/render"
)

// ApplyRows replaces the body of table with rows. A table without a tbody
// gets one.
func ApplyRows(table *dom.Element, rows []render.Row) {
	body := table.Find("tbody")
	if body == nil {
		body = table.Append("tbody")
	}
	body.Clear()
	for _, r := range rows {
		tr := body.Append("tr")
		for _, cell := range r.Cells {
			td := tr.Append("td")
			if r.IsFallback() {
				td.SetAttr("colspan", strconv.Itoa(r.Span))
			}
			td.SetText(cell)
		}
	}
}
