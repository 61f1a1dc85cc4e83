//go:build js && wasm

// Package jsdom binds the dom contract to the browser through syscall/js.
package jsdom

import (
	"strings"
	"syscall/js"

	"cartelera/internal/dom"
)

var (
	_ dom.Document = (*Document)(nil)
	_ dom.Element  = (*Element)(nil)
	_ dom.History  = (*History)(nil)
)

// Document is window.document.
type Document struct {
	v           js.Value
	dateSupport bool
}

// NewDocument wraps the global document and probes date input support once.
func NewDocument() *Document {
	d := &Document{v: js.Global().Get("document")}
	d.dateSupport = d.probeDateInput()
	return d
}

// probeDateInput asks the browser to parse a date input: without native
// support the type falls back to text and valueAsDate stays null.
func (d *Document) probeDateInput() bool {
	i := d.v.Call("createElement", "input")
	i.Call("setAttribute", "type", "date")
	i.Call("setAttribute", "value", "2023-01-01")
	if i.Get("type").String() != "date" {
		return false
	}
	v := i.Get("valueAsDate")
	if v.IsNull() || v.IsUndefined() {
		return false
	}
	if !v.InstanceOf(js.Global().Get("Date")) {
		return false
	}
	return !js.Global().Call("isNaN", v.Call("getTime")).Bool()
}

// OnReady runs fn once the DOM is parsed.
func (d *Document) OnReady(fn func()) {
	if d.v.Get("readyState").String() != "loading" {
		fn()
		return
	}
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	d.v.Call("addEventListener", "DOMContentLoaded", cb)
}

func (d *Document) SupportsDateInput() bool {
	return d.dateSupport
}

func (d *Document) ByID(id string) dom.Element {
	return wrap(d.v.Call("getElementById", id))
}

func (d *Document) Query(selector string) dom.Element {
	return wrap(d.v.Call("querySelector", selector))
}

func (d *Document) QueryAll(selector string) []dom.Element {
	return wrapAll(d.v.Call("querySelectorAll", selector))
}

func (d *Document) Body() dom.Element {
	return wrap(d.v.Get("body"))
}

// Element is an HTMLElement.
type Element struct {
	v js.Value
}

// wrap returns nil for null, so callers can compare against nil.
func wrap(v js.Value) dom.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	return &Element{v: v}
}

func wrapAll(list js.Value) []dom.Element {
	n := list.Length()
	out := make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &Element{v: list.Index(i)})
	}
	return out
}

func (e *Element) ID() string {
	return e.v.Get("id").String()
}

func (e *Element) TagName() string {
	return strings.ToLower(e.v.Get("tagName").String())
}

func (e *Element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e *Element) SetAttr(name, value string) {
	e.v.Call("setAttribute", name, value)
}

func (e *Element) HasClass(class string) bool {
	return e.v.Get("classList").Call("contains", class).Bool()
}

func (e *Element) AddClass(class string) {
	e.v.Get("classList").Call("add", class)
}

func (e *Element) RemoveClass(class string) {
	e.v.Get("classList").Call("remove", class)
}

func (e *Element) Classes() []string {
	list := e.v.Get("classList")
	n := list.Length()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, list.Index(i).String())
	}
	return out
}

func (e *Element) Text() string {
	return e.v.Get("textContent").String()
}

func (e *Element) SetText(text string) {
	e.v.Set("textContent", text)
}

func (e *Element) Value() string {
	v := e.v.Get("value")
	if v.IsUndefined() || v.IsNull() {
		return ""
	}
	return v.String()
}

func (e *Element) SetValue(v string) {
	e.v.Set("value", v)
}

// DefaultValue reads defaultValue, or for a select the value of the option
// marked selected in the markup (the first option otherwise).
func (e *Element) DefaultValue() string {
	if e.TagName() == "select" {
		opts := e.v.Get("options")
		n := opts.Length()
		for i := 0; i < n; i++ {
			if o := opts.Index(i); o.Get("defaultSelected").Bool() {
				return o.Get("value").String()
			}
		}
		if n > 0 {
			return opts.Index(0).Get("value").String()
		}
		return ""
	}
	v := e.v.Get("defaultValue")
	if v.IsUndefined() || v.IsNull() {
		return ""
	}
	return v.String()
}

func (e *Element) Checked() bool {
	return e.v.Get("checked").Truthy()
}

func (e *Element) SetChecked(v bool) {
	e.v.Set("checked", v)
}

func (e *Element) DefaultChecked() bool {
	return e.v.Get("defaultChecked").Truthy()
}

func (e *Element) ClearStyle(property string) {
	e.v.Get("style").Call("removeProperty", property)
}

func (e *Element) Query(selector string) dom.Element {
	return wrap(e.v.Call("querySelector", selector))
}

func (e *Element) QueryAll(selector string) []dom.Element {
	return wrapAll(e.v.Call("querySelectorAll", selector))
}

func (e *Element) Parent() dom.Element {
	return wrap(e.v.Get("parentElement"))
}

func (e *Element) AppendChild(child dom.Element) {
	c, ok := child.(*Element)
	if !ok {
		return
	}
	e.v.Call("appendChild", c.v)
}

func (e *Element) Remove() {
	e.v.Call("remove")
}

// OnChange registers a change listener. Listeners live as long as the page,
// so the js.Func is never released.
func (e *Element) OnChange(fn func()) {
	e.v.Call("addEventListener", "change", js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	}))
}

// History is window.history plus window.location.
type History struct {
	win js.Value
}

// NewHistory wraps the global window.
func NewHistory() *History {
	return &History{win: js.Global()}
}

func (h *History) Href() string {
	return h.win.Get("location").Get("href").String()
}

func (h *History) Search() string {
	return h.win.Get("location").Get("search").String()
}

func (h *History) PushState(url string) {
	h.win.Get("history").Call("pushState", js.Null(), "", url)
}

func (h *History) OnPopState(fn func()) {
	h.win.Call("addEventListener", "popstate", js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	}))
}
