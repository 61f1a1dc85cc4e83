package page

import (
	"regexp"
	"strings"

	"cartelera/internal/dom"
)

var eventPath = regexp.MustCompile(`(^|/)e/\d+$`)

// FixFileLinks makes a site opened from disk navigable: links to
// directories get index.html and links to event pages get .html, since
// there is no web server to resolve them. Links to other schemes are left
// alone. It returns the number of links rewritten.
func FixFileLinks(doc dom.Document) int {
	fixed := 0
	for _, a := range doc.QueryAll("a[href]") {
		href, _ := a.Attr("href")
		if !localLink(href) {
			continue
		}
		path, rest := splitPath(href)
		switch {
		case path == "" || strings.HasSuffix(path, "/"):
			if path == "" {
				continue
			}
			path += "index.html"
		case eventPath.MatchString(path):
			path += ".html"
		default:
			continue
		}
		a.SetAttr("href", path+rest)
		fixed++
	}
	return fixed
}

// localLink reports whether href resolves against a file: page to another
// file: URL.
func localLink(href string) bool {
	if strings.HasPrefix(href, "file:") {
		return true
	}
	if strings.HasPrefix(href, "//") {
		return false
	}
	for i, c := range href {
		switch {
		case c == ':':
			return false
		case c == '/' || c == '?' || c == '#':
			return true
		case i == 0 && !isLetter(c):
			return true
		}
	}
	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// splitPath separates the path from a trailing ?query or #fragment.
func splitPath(href string) (path, rest string) {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		return href[:i], href[i:]
	}
	return href, ""
}
