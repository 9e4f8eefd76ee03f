package ui

import (
	"errors"

	"github.com/xtrntr/tradeview/internal/dom"
)

// EmptySymbolAlert is shown when the view button is pressed with no symbol.
const EmptySymbolAlert = "Please enter a symbol"

// ErrEmptySymbol is returned by OrderBookPath for an empty symbol.
var ErrEmptySymbol = errors.New("empty symbol")

// Window is the browser surface the page script talks to.
type Window interface {
	// Navigate performs a full page transition to path.
	Navigate(path string)
	// Alert shows a blocking message to the user.
	Alert(msg string)
}

// OrderBookPath returns the order-book page for symbol. The symbol is used
// verbatim; neither case nor format is checked.
func OrderBookPath(symbol string) (string, error) {
	if symbol == "" {
		return "", ErrEmptySymbol
	}
	return "/orderbook/" + symbol, nil
}

// Navigate sends win to the order-book page for symbol, or alerts and stays
// put when symbol is empty.
func Navigate(win Window, symbol string) {
	path, err := OrderBookPath(symbol)
	if err != nil {
		win.Alert(EmptySymbolAlert)
		return
	}
	win.Navigate(path)
}

// BindNavigator wires the view button to read the symbol input and navigate.
// It reports false when either anchor is missing.
func BindNavigator(doc *dom.Document, win Window) bool {
	btn := doc.GetElementByID(ViewButtonID)
	input := doc.GetElementByID(ViewSymbolID)
	if btn == nil || input == nil || win == nil {
		return false
	}
	btn.AddEventListener(EventClick, func(*dom.Event) {
		Navigate(win, input.Value())
	})
	return true
}

// RecordingWindow is a Window that remembers where it was sent and what it
// was asked to show. The server uses it to turn page events into redirects.
type RecordingWindow struct {
	Location string
	Alerts   []string
}

func (w *RecordingWindow) Navigate(path string) { w.Location = path }

func (w *RecordingWindow) Alert(msg string) { w.Alerts = append(w.Alerts, msg) }
