package ui

import "github.com/xtrntr/tradeview/internal/dom"

// TabSwitcher keeps exactly one tab and its pane active.
type TabSwitcher struct {
	doc *dom.Document
}

// BindTabs wires a click handler on every tab. It returns nil when the
// page has no tabs. The initially active tab is whatever the markup marks.
func BindTabs(doc *dom.Document) *TabSwitcher {
	tabs := doc.ElementsByClass(TabClass)
	if len(tabs) == 0 {
		return nil
	}
	s := &TabSwitcher{doc: doc}
	for _, tab := range tabs {
		tab.AddEventListener(EventClick, func(ev *dom.Event) {
			s.Activate(ev.Target)
		})
	}
	return s
}

// Activate deactivates every tab and pane, then activates tab and the pane
// whose id is the tab's data-tab value. A tab pointing at a missing pane
// still becomes active, leaving no pane shown.
func (s *TabSwitcher) Activate(tab *dom.Element) {
	for _, t := range s.doc.ElementsByClass(TabClass) {
		t.RemoveClass(ActiveClass)
	}
	for _, p := range s.doc.ElementsByClass(TabPaneClass) {
		p.RemoveClass(ActiveClass)
	}
	tab.AddClass(ActiveClass)

	target, _ := tab.Attr(TabTargetKey)
	if pane := s.doc.GetElementByID(target); pane != nil {
		pane.AddClass(ActiveClass)
	}
}

// Tab returns the tab whose data-tab is target, or nil.
func (s *TabSwitcher) Tab(target string) *dom.Element {
	for _, t := range s.doc.ElementsByClass(TabClass) {
		if v, _ := t.Attr(TabTargetKey); v == target {
			return t
		}
	}
	return nil
}

// Active returns the data-tab of the active tab, or "" when none is active.
func (s *TabSwitcher) Active() string {
	for _, t := range s.doc.ElementsByClass(TabClass) {
		if t.HasClass(ActiveClass) {
			v, _ := t.Attr(TabTargetKey)
			return v
		}
	}
	return ""
}
