// Package htmldoc implements dom.Document over a parsed HTML tree. It is
// what the build-time tooling, the preview server and the tests run the
// filter logic against.
//
// Form controls keep a live value next to the markup, as browsers do:
// SetValue changes the live value only, SetAttr("value") changes the
// default and, while the control is untouched, the live value with it.
// Render flushes live values back into the markup.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"cartelera/internal/dom"
	appLog "cartelera/internal/log"
)

// Document is a parsed page.
type Document struct {
	root        *html.Node
	elements    map[*html.Node]*Element
	selectors   map[string]cascadia.Selector
	dateSupport bool
}

type liveState struct {
	value        string
	valueDirty   bool
	checked      bool
	checkedDirty bool
	handlers     []func()
}

// Element wraps one element node. A Document hands out a single *Element
// per node, so wrappers compare equal when nodes do.
type Element struct {
	doc  *Document
	node *html.Node
	live liveState
}

var (
	_ dom.Document = (*Document)(nil)
	_ dom.Element  = (*Element)(nil)
)

// Parse reads a whole HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	return &Document{
		root:        root,
		elements:    make(map[*html.Node]*Element),
		selectors:   make(map[string]cascadia.Selector),
		dateSupport: true,
	}, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// SetDateInputSupport emulates a browser with or without native date
// inputs. Documents start with support enabled.
func (d *Document) SetDateInputSupport(ok bool) {
	d.dateSupport = ok
}

func (d *Document) SupportsDateInput() bool {
	return d.dateSupport
}

// Render writes the document, live form state included.
func (d *Document) Render(w io.Writer) error {
	d.flush()
	return html.Render(w, d.root)
}

// Bytes renders into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ChangeValue mimics a user editing a control: the live value changes and
// change handlers run.
func (d *Document) ChangeValue(id, value string) bool {
	el := d.byID(id)
	if el == nil {
		return false
	}
	if el.isCheckbox() {
		el.SetChecked(value != "" && value != "false")
	} else {
		el.SetValue(value)
	}
	el.fireChange()
	return true
}

func (d *Document) ByID(id string) dom.Element {
	if el := d.byID(id); el != nil {
		return el
	}
	return nil
}

func (d *Document) byID(id string) *Element {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			if c.Type == html.ElementNode && getAttr(c, "id") == id {
				found = c
				return
			}
			walk(c)
		}
	}
	walk(d.root)
	if found == nil {
		return nil
	}
	return d.wrap(found)
}

func (d *Document) Query(selector string) dom.Element {
	return d.query(d.root, selector)
}

func (d *Document) QueryAll(selector string) []dom.Element {
	return d.queryAll(d.root, selector)
}

func (d *Document) Body() dom.Element {
	return d.query(d.root, "body")
}

func (d *Document) compile(selector string) cascadia.Selector {
	if sel, ok := d.selectors[selector]; ok {
		return sel
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		appLog.Error("htmldoc: bad selector", err, "selector", selector)
		return nil
	}
	d.selectors[selector] = sel
	return sel
}

func (d *Document) query(n *html.Node, selector string) dom.Element {
	sel := d.compile(selector)
	if sel == nil {
		return nil
	}
	if m := cascadia.Query(n, sel); m != nil {
		return d.wrap(m)
	}
	return nil
}

func (d *Document) queryAll(n *html.Node, selector string) []dom.Element {
	sel := d.compile(selector)
	if sel == nil {
		return nil
	}
	nodes := cascadia.QueryAll(n, sel)
	out := make([]dom.Element, 0, len(nodes))
	for _, m := range nodes {
		out = append(out, d.wrap(m))
	}
	return out
}

func (d *Document) wrap(n *html.Node) *Element {
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

// flush writes live form values into the markup so a rendered page opens
// in the state it was left in.
func (d *Document) flush() {
	for n, el := range d.elements {
		if n.Parent == nil {
			continue
		}
		switch {
		case el.isCheckbox() && el.live.checkedDirty:
			if el.live.checked {
				setAttr(n, "checked", "")
			} else {
				removeAttr(n, "checked")
			}
		case n.DataAtom == atom.Select && el.live.valueDirty:
			for _, o := range el.options() {
				if o.Value() == el.live.value {
					setAttr(o.node, "selected", "")
				} else {
					removeAttr(o.node, "selected")
				}
			}
		case n.DataAtom == atom.Input && el.live.valueDirty:
			setAttr(n, "value", el.live.value)
		}
	}
}

func (e *Element) ID() string {
	return getAttr(e.node, "id")
}

func (e *Element) TagName() string {
	return strings.ToLower(e.node.Data)
}

func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) SetAttr(name, value string) {
	setAttr(e.node, name, value)
}

func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	e.setClasses(append(e.Classes(), class))
}

func (e *Element) RemoveClass(class string) {
	cur := e.Classes()
	out := cur[:0]
	for _, c := range cur {
		if c != class {
			out = append(out, c)
		}
	}
	e.setClasses(out)
}

func (e *Element) Classes() []string {
	return strings.Fields(getAttr(e.node, "class"))
}

func (e *Element) setClasses(classes []string) {
	if len(classes) == 0 {
		removeAttr(e.node, "class")
		return
	}
	setAttr(e.node, "class", strings.Join(classes, " "))
}

func (e *Element) Text() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return b.String()
}

func (e *Element) SetText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func (e *Element) Value() string {
	switch e.node.DataAtom {
	case atom.Select:
		if e.live.valueDirty {
			return e.live.value
		}
		return e.DefaultValue()
	case atom.Option:
		if v, ok := e.Attr("value"); ok {
			return v
		}
		return strings.TrimSpace(e.Text())
	case atom.Textarea:
		if e.live.valueDirty {
			return e.live.value
		}
		return e.Text()
	default:
		if e.live.valueDirty {
			return e.live.value
		}
		return getAttr(e.node, "value")
	}
}

// SetValue on a select picks the matching option; an unknown value leaves
// nothing selected, which reads back as "".
func (e *Element) SetValue(v string) {
	if e.node.DataAtom == atom.Select {
		match := ""
		for _, o := range e.options() {
			if o.Value() == v {
				match = v
				break
			}
		}
		v = match
	}
	e.live.value = v
	e.live.valueDirty = true
}

func (e *Element) DefaultValue() string {
	switch e.node.DataAtom {
	case atom.Select:
		opts := e.options()
		for _, o := range opts {
			if _, ok := o.Attr("selected"); ok {
				return o.Value()
			}
		}
		if len(opts) > 0 {
			return opts[0].Value()
		}
		return ""
	case atom.Textarea:
		return e.Text()
	default:
		return getAttr(e.node, "value")
	}
}

func (e *Element) Checked() bool {
	if e.live.checkedDirty {
		return e.live.checked
	}
	return e.DefaultChecked()
}

func (e *Element) SetChecked(v bool) {
	e.live.checked = v
	e.live.checkedDirty = true
}

func (e *Element) DefaultChecked() bool {
	_, ok := e.Attr("checked")
	return ok
}

func (e *Element) ClearStyle(property string) {
	style, ok := e.Attr("style")
	if !ok {
		return
	}
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(name), property) {
			continue
		}
		kept = append(kept, decl)
	}
	if len(kept) == 0 {
		removeAttr(e.node, "style")
		return
	}
	setAttr(e.node, "style", strings.Join(kept, "; "))
}

func (e *Element) Query(selector string) dom.Element {
	return e.doc.query(e.node, selector)
}

func (e *Element) QueryAll(selector string) []dom.Element {
	return e.doc.queryAll(e.node, selector)
}

func (e *Element) Parent() dom.Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// AppendChild moves child to the end of e, detaching it first if needed.
func (e *Element) AppendChild(child dom.Element) {
	c, ok := child.(*Element)
	if !ok || c.doc != e.doc {
		appLog.Warn("htmldoc: foreign element ignored", "parent", e.ID())
		return
	}
	if c.node.Parent != nil {
		c.node.Parent.RemoveChild(c.node)
	}
	e.node.AppendChild(c.node)
}

func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

func (e *Element) OnChange(fn func()) {
	e.live.handlers = append(e.live.handlers, fn)
}

func (e *Element) fireChange() {
	for _, fn := range e.live.handlers {
		fn()
	}
}

func (e *Element) isCheckbox() bool {
	return e.node.DataAtom == atom.Input && strings.EqualFold(getAttr(e.node, "type"), "checkbox")
}

func (e *Element) options() []*Element {
	nodes := cascadia.QueryAll(e.node, e.doc.compile("option"))
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, e.doc.wrap(n))
	}
	return out
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// IDs lists the ids of the matched elements, in document order. Handy in
// tests and the CLI.
func IDs(els []dom.Element) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		out = append(out, el.ID())
	}
	return out
}

// SortedIDs is IDs, sorted.
func SortedIDs(els []dom.Element) []string {
	out := IDs(els)
	sort.Strings(out)
	return out
}
