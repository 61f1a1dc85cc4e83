// Package form reads and writes typed values on the page's filter
// controls. Each control is resolved once into a descriptor; reads and
// writes dispatch on the descriptor's Kind rather than re-inspecting the
// markup. Missing controls are logged and read as Null.
package form

import (
	"strconv"
	"strings"

	"cartelera/internal/dateutil"
	"cartelera/internal/dom"
	appLog "cartelera/internal/log"
)

// Kind is the control variant.
type Kind int

const (
	KindText Kind = iota
	KindCheckbox
	KindDateInput
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindCheckbox:
		return "checkbox"
	case KindDateInput:
		return "date"
	case KindSelect:
		return "select"
	default:
		return "text"
	}
}

// Control describes one resolved form control.
type Control struct {
	ID      string
	Kind    Kind
	Numeric bool
	el      dom.Element
}

// Element exposes the underlying node, e.g. for listener registration.
func (c *Control) Element() dom.Element {
	return c.el
}

// Describe classifies el.
func Describe(el dom.Element) *Control {
	c := &Control{ID: el.ID(), el: el}
	typ, _ := el.Attr("type")
	typ = strings.ToLower(strings.TrimSpace(typ))
	switch el.TagName() {
	case "select":
		c.Kind = KindSelect
	case "input":
		switch typ {
		case "checkbox":
			c.Kind = KindCheckbox
		case "date":
			c.Kind = KindDateInput
		}
	}
	declared, ok := el.Attr("data-type")
	if !ok {
		declared = typ
	}
	c.Numeric = strings.EqualFold(strings.TrimSpace(declared), "number")
	return c
}

// Form is the set of controls the filter layer works with.
type Form struct {
	doc      dom.Document
	controls map[string]*Control
}

// Resolve looks up ids once. Absent ids are logged and stay unresolved.
func Resolve(doc dom.Document, ids ...string) *Form {
	f := &Form{doc: doc, controls: make(map[string]*Control, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		el := doc.ByID(id)
		if el == nil {
			appLog.Warn("form control not found", "id", id)
			continue
		}
		f.controls[id] = Describe(el)
	}
	return f
}

// Control returns the descriptor for id, or nil.
func (f *Form) Control(id string) *Control {
	return f.controls[id]
}

func (f *Form) lookup(id string) *Control {
	c := f.controls[id]
	if c == nil {
		appLog.Warn("element not found", "id", id)
	}
	return c
}

// Read returns the typed value of a control.
func (f *Form) Read(id string) Value {
	c := f.lookup(id)
	if c == nil {
		return Null()
	}
	if c.Kind == KindCheckbox {
		if !c.el.Checked() {
			return Bool(false)
		}
		if v, ok := c.el.Attr("value"); ok {
			return String(v)
		}
		return Bool(true)
	}
	val := strings.TrimSpace(c.el.Value())
	if val == "" {
		return Null()
	}
	if c.Numeric {
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return Null()
		}
		return Number(n)
	}
	return String(val)
}

// ReadString is Read(id).Text(); Null reads as "".
func (f *Form) ReadString(id string) string {
	return f.Read(id).Text()
}

// Set writes v. A checkbox is checked only by Bool(true).
func (f *Form) Set(id string, v Value) {
	c := f.lookup(id)
	if c == nil {
		return
	}
	if c.Kind == KindCheckbox {
		c.el.SetChecked(v.Kind == KindBool && v.Bool)
		return
	}
	c.el.SetValue(v.Text())
}

// SetString is Set(id, String(s)).
func (f *Form) SetString(id, s string) {
	f.Set(id, String(s))
}

// Reset restores the control to what the markup declares.
func (f *Form) Reset(id string) {
	c := f.lookup(id)
	if c == nil {
		return
	}
	if c.Kind == KindCheckbox {
		c.el.SetChecked(c.el.DefaultChecked())
		return
	}
	c.el.SetValue(c.el.DefaultValue())
}

// ReadDate reads a date input. It yields "" when the control is missing,
// is not a date input or the runtime lacks native date support; when the
// current value does not parse as a date the declared default is used.
func (f *Form) ReadDate(id string) string {
	c := f.controls[id]
	if c == nil || c.Kind != KindDateInput || !f.doc.SupportsDateInput() {
		return ""
	}
	v := c.el.Value()
	if !dateutil.IsValidCalendarDate(v) {
		return c.el.DefaultValue()
	}
	return v
}

// Attr reads an attribute: missing, blank or whitespace-only gives "".
func (f *Form) Attr(id, name string) string {
	c := f.lookup(id)
	if c == nil {
		return ""
	}
	v, _ := c.el.Attr(name)
	return strings.TrimSpace(v)
}

func (f *Form) SetAttr(id, name, value string) {
	c := f.lookup(id)
	if c == nil {
		return
	}
	c.el.SetAttr(name, value)
}
