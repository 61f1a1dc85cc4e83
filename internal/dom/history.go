package dom

import "strings"

// MemoryHistory is a History kept in process memory. The headless
// runtime and the tests use it in place of window.history.
type MemoryHistory struct {
	entries []string
	pos     int
	onPop   []func()
}

// NewMemoryHistory starts a history whose only entry is href.
func NewMemoryHistory(href string) *MemoryHistory {
	return &MemoryHistory{entries: []string{href}}
}

func (h *MemoryHistory) Href() string {
	return h.entries[h.pos]
}

func (h *MemoryHistory) Search() string {
	return SearchOf(h.Href())
}

// PushState drops any forward entries, like a browser does.
func (h *MemoryHistory) PushState(href string) {
	h.entries = append(h.entries[:h.pos+1], href)
	h.pos++
}

func (h *MemoryHistory) OnPopState(fn func()) {
	h.onPop = append(h.onPop, fn)
}

// Back moves one entry back and fires popstate. It reports false at the
// first entry.
func (h *MemoryHistory) Back() bool {
	if h.pos == 0 {
		return false
	}
	h.pos--
	h.firePop()
	return true
}

// Forward is the inverse of Back.
func (h *MemoryHistory) Forward() bool {
	if h.pos >= len(h.entries)-1 {
		return false
	}
	h.pos++
	h.firePop()
	return true
}

// Len is the number of entries in the stack.
func (h *MemoryHistory) Len() int {
	return len(h.entries)
}

func (h *MemoryHistory) firePop() {
	for _, fn := range h.onPop {
		fn()
	}
}

// SearchOf extracts the "?..." part of href, or "" when the query is empty.
func SearchOf(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	i := strings.IndexByte(href, '?')
	if i < 0 || i == len(href)-1 {
		return ""
	}
	return href[i:]
}

// WithoutQuery strips the query (and fragment) from href.
func WithoutQuery(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		return href[:i]
	}
	return href
}
