// Package dom is a small mutable document model over golang.org/x/net/html.
//
// A Document is not safe for concurrent use. Callers serialize access, which
// the ui package does by touching documents only from its event loop.
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Listener handles a dispatched event.
type Listener func(ev *Event)

// Event is a user interaction delivered to an element.
type Event struct {
	Type   string
	Target *Element
}

// Document is a parsed HTML page plus the event listeners bound to it.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
	// selects whose value was set to something no option carries
	unselected map[*html.Node]bool
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{
		root:       root,
		listeners:  make(map[*html.Node]map[string][]Listener),
		unselected: make(map[*html.Node]bool),
	}, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render serializes the document, including every mutation made so far.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document to a string.
func (d *Document) String() string {
	var sb strings.Builder
	_ = d.Render(&sb)
	return sb.String()
}

// GetElementByID returns the first element with the given id, or nil.
func (d *Document) GetElementByID(id string) *Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return d.wrap(found)
}

// ElementsByClass returns every element carrying class, in document order.
func (d *Document) ElementsByClass(class string) []*Element {
	var out []*Element
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, d.wrap(n))
		}
		return true
	})
	return out
}

// Dispatch delivers an event of type typ to the listeners bound on target,
// in registration order.
func (d *Document) Dispatch(target *Element, typ string) {
	if target == nil {
		return
	}
	ev := &Event{Type: typ, Target: target}
	for _, fn := range d.listeners[target.n][typ] {
		fn(ev)
	}
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{n: n, doc: d}
}

// Element is a handle on one element node of a Document.
type Element struct {
	n   *html.Node
	doc *Document
}

// Same reports whether both handles refer to the same node.
func (e *Element) Same(o *Element) bool {
	return e != nil && o != nil && e.n == o.n
}

func (e *Element) Tag() string { return e.n.Data }

func (e *Element) ID() string { return attr(e.n, "id") }

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) HasAttr(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

func (e *Element) SetAttr(key, val string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			e.n.Attr[i].Val = val
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
}

func (e *Element) RemoveAttr(key string) {
	kept := e.n.Attr[:0]
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	e.n.Attr = kept
}

func (e *Element) HasClass(class string) bool { return hasClass(e.n, class) }

func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	classes := strings.Fields(attr(e.n, "class"))
	e.SetAttr("class", strings.Join(append(classes, class), " "))
}

func (e *Element) RemoveClass(class string) {
	if !e.HasClass(class) {
		return
	}
	var kept []string
	for _, c := range strings.Fields(attr(e.n, "class")) {
		if c != class {
			kept = append(kept, c)
		}
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

// Display returns the inline display property, or "" when unset.
func (e *Element) Display() string {
	return styleProp(attr(e.n, "style"), "display")
}

// SetDisplay replaces the inline display property, keeping other properties.
func (e *Element) SetDisplay(val string) {
	e.SetAttr("style", setStyleProp(attr(e.n, "style"), "display", val))
}

// Value returns the current value of a form control. For a select it is the
// value of the selected option, falling back to the first option, or "" once
// SetValue was given a value no option carries.
func (e *Element) Value() string {
	if e.n.DataAtom != atom.Select {
		return attr(e.n, "value")
	}
	if e.doc.unselected[e.n] {
		return ""
	}
	var first, selected *html.Node
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			if first == nil {
				first = n
			}
			if selected == nil && hasAttr(n, "selected") {
				selected = n
			}
		}
		return true
	})
	if selected == nil {
		selected = first
	}
	if selected == nil {
		return ""
	}
	return optionValue(selected)
}

// SetValue sets a control's value. For a select the matching option becomes
// the only selected one; an unknown value deselects every option.
func (e *Element) SetValue(val string) {
	if e.n.DataAtom != atom.Select {
		e.SetAttr("value", val)
		return
	}
	var options []*html.Node
	match := false
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			options = append(options, n)
			if optionValue(n) == val {
				match = true
			}
		}
		return true
	})
	if match {
		delete(e.doc.unselected, e.n)
	} else {
		e.doc.unselected[e.n] = true
	}
	for _, o := range options {
		opt := e.doc.wrap(o)
		if match && optionValue(o) == val {
			opt.SetAttr("selected", "selected")
		} else {
			opt.RemoveAttr("selected")
		}
	}
}

// AddEventListener binds fn to events of type typ on this element.
func (e *Element) AddEventListener(typ string, fn Listener) {
	byType := e.doc.listeners[e.n]
	if byType == nil {
		byType = make(map[string][]Listener)
		e.doc.listeners[e.n] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// Find returns the first descendant element with the given tag name, or nil.
func (e *Element) Find(tag string) *Element {
	var found *html.Node
	walk(e.n, func(n *html.Node) bool {
		if n != e.n && n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return e.doc.wrap(found)
}

// Children returns the direct element children.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Clear removes every child node.
func (e *Element) Clear() {
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		walk(c, func(n *html.Node) bool {
			delete(e.doc.listeners, n)
			delete(e.doc.unselected, n)
			return true
		})
		c = next
	}
}

// Append creates a new child element with the given tag and returns it.
func (e *Element) Append(tag string) *Element {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	e.n.AppendChild(n)
	return e.doc.wrap(n)
}

// SetText replaces the element's content with a single text node.
func (e *Element) SetText(s string) {
	e.Clear()
	e.n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var sb strings.Builder
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return true
	})
	return sb.String()
}

// walk visits n and its descendants depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func optionValue(n *html.Node) string {
	if hasAttr(n, "value") {
		return attr(n, "value")
	}
	return strings.TrimSpace((&Element{n: n}).Text())
}

func styleProp(style, prop string) string {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func setStyleProp(style, prop, val string) string {
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		k, _, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(k) == prop {
			continue
		}
		decls = append(decls, strings.TrimSpace(decl))
	}
	decls = append(decls, prop+": "+val)
	return strings.Join(decls, "; ")
}
