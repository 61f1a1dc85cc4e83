// Package dom is the document contract the filter logic is written
// against. The browser binding (dom/jsdom) and the headless HTML binding
// (dom/htmldoc) both implement it.
package dom

import (
	"fmt"
	"strings"
)

// Element is a single node of the page.
//
// Value/Checked are the live form state; DefaultValue/DefaultChecked are
// what the markup declares. Selectors follow CSS syntax.
type Element interface {
	ID() string
	// TagName is lower-case ("input", "select", ...).
	TagName() string

	Attr(name string) (string, bool)
	SetAttr(name, value string)

	HasClass(class string) bool
	AddClass(class string)
	RemoveClass(class string)
	Classes() []string

	Text() string
	SetText(text string)

	Value() string
	SetValue(v string)
	DefaultValue() string
	Checked() bool
	SetChecked(v bool)
	DefaultChecked() bool

	// ClearStyle drops an inline style property (style.display = "").
	ClearStyle(property string)

	Query(selector string) Element
	QueryAll(selector string) []Element

	Parent() Element
	AppendChild(child Element)
	Remove()

	// OnChange registers fn for the element's change event. Handlers run
	// in registration order.
	OnChange(fn func())
}

// Document is the page.
type Document interface {
	ByID(id string) Element
	Query(selector string) Element
	QueryAll(selector string) []Element
	Body() Element

	// SupportsDateInput reports native <input type=date> parsing support,
	// detected once per document.
	SupportsDateInput() bool
}

// History is the address bar plus the session history stack.
type History interface {
	// Href is the full current URL.
	Href() string
	// Search is the query part including its leading "?", or "".
	Search() string
	// PushState records url as a new entry without reloading the page.
	PushState(url string)
	// OnPopState registers fn for back/forward navigation.
	OnPopState(fn func())
}

// EscapeIdent makes s usable as a CSS class name in a selector: a leading
// digit becomes a hex escape and other characters outside [A-Za-z0-9_-]
// are backslash-escaped. Non-ASCII runes pass through.
func EscapeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9' && (i == 0 || (i == 1 && s[0] == '-')):
			fmt.Fprintf(&b, "\\%x ", r)
		case r == '-' && i == 0 && len(s) == 1:
			b.WriteString("\\-")
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r >= 0x80:
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
