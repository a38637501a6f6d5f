// Package sitetoc reads the site-wide table of contents fragment that
// documentation pages share, and locates the active page in it.
package sitetoc

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// NavListID is the id of the top-level list in the fragment.
const NavListID = "nav"

var (
	toRootDirective = regexp.MustCompile(`<\?cs\s+var:\s*toroot\s*\?>`)
	otherDirective  = regexp.MustCompile(`<\?cs[^>]*\?>`)
)

// Entry is one item of the site table of contents.
type Entry struct {
	Title    string   `json:"title"`
	Href     string   `json:"href,omitempty"`
	Section  bool     `json:"section"`
	Children []*Entry `json:"children,omitempty"`
}

// TOC is a parsed site table of contents.
type TOC struct {
	Entries []*Entry `json:"entries"`
}

// Parse reads a table of contents fragment. Template directives are
// resolved: the site root placeholder becomes root and all others are
// dropped.
func Parse(r io.Reader, root string) (*TOC, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read toc: %w", err)
	}
	src = toRootDirective.ReplaceAllLiteral(src, []byte(root))
	src = otherDirective.ReplaceAll(src, nil)

	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse toc: %w", err)
	}

	list := findList(doc)
	if list == nil {
		return nil, fmt.Errorf("parse toc: no <ul id=%q> or <ul> found", NavListID)
	}
	return &TOC{Entries: readList(list)}, nil
}

func findList(doc *html.Node) *html.Node {
	var first, byID *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if byID != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "ul" {
			if attr(n, "id") == NavListID {
				byID = n
				return
			}
			if first == nil {
				first = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if byID != nil {
		return byID
	}
	return first
}

func readList(ul *html.Node) []*Entry {
	var out []*Entry
	for li := ul.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		if e := readItem(li); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// readItem handles both plain items (<li><a>) and sections
// (<li class="nav-section"><div class="nav-section-header"><a>…</a></div><ul>…</ul>).
func readItem(li *html.Node) *Entry {
	e := &Entry{Section: hasClass(li, "nav-section")}
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch {
		case c.Data == "a" && e.Href == "" && e.Title == "":
			e.Href, e.Title = attr(c, "href"), linkLabel(c)
		case c.Data == "div" && hasClass(c, "nav-section-header"):
			if a := firstElement(c, "a"); a != nil {
				e.Href, e.Title = attr(a, "href"), linkLabel(a)
			} else {
				e.Title = text(c)
			}
		case c.Data == "ul":
			e.Children = append(e.Children, readList(c)...)
		}
	}
	if e.Title == "" && len(e.Children) == 0 {
		return nil
	}
	return e
}

// linkLabel prefers the English label span when the link carries one.
func linkLabel(a *html.Node) string {
	var en *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if en != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "span" && hasClass(n, "en") {
			en = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(a)
	if en != nil {
		return text(en)
	}
	return text(a)
}

// Trail returns the entries from the top level down to the entry whose
// href equals or ends with href. It returns nil when nothing matches.
func (t *TOC) Trail(href string) []*Entry {
	if href == "" {
		return nil
	}
	var trail []*Entry
	var search func([]*Entry) bool
	search = func(entries []*Entry) bool {
		for _, e := range entries {
			trail = append(trail, e)
			if matches(e.Href, href) || search(e.Children) {
				return true
			}
			trail = trail[:len(trail)-1]
		}
		return false
	}
	if search(t.Entries) {
		return trail
	}
	return nil
}

// Flatten returns every entry in document order.
func (t *TOC) Flatten() []*Entry {
	var out []*Entry
	var walk func([]*Entry)
	walk = func(entries []*Entry) {
		for _, e := range entries {
			out = append(out, e)
			walk(e.Children)
		}
	}
	walk(t.Entries)
	return out
}

func matches(entryHref, active string) bool {
	if entryHref == "" {
		return false
	}
	if entryHref == active {
		return true
	}
	return strings.HasSuffix(entryHref, "/"+strings.TrimPrefix(active, "/"))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func firstElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func text(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
