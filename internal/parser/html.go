package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	"golang.org/x/net/html"
)

// TitleAttr carries an explicit navigation title on a heading element.
const TitleAttr = "data-title"

// HTMLParser handles rendered HTML pages.
type HTMLParser struct {
	ContentID string // Restrict headings to this element; empty or missing means <body>.
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*navtree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromNode(doc, filename, p.ContentID), nil
}

// FromNode extracts the outline of an already parsed page.
func FromNode(doc *html.Node, filename, contentID string) *navtree.Document {
	out := &navtree.Document{Title: trimExt(filename)}
	if title := findTitle(doc); title != "" {
		out.Title = title
	}
	for _, n := range HeadingNodes(doc, contentID) {
		out.Headings = append(out.Headings, HeadingFromNode(n))
	}
	return out
}

// ContentRoot returns the element with the given id, falling back to <body>
// and then to the document itself.
func ContentRoot(doc *html.Node, contentID string) *html.Node {
	if contentID != "" {
		if n := FindByID(doc, contentID); n != nil {
			return n
		}
	}
	if body := findBody(doc); body != nil {
		return body
	}
	return doc
}

// HeadingNodes returns the h1-h6 elements under the content region in
// document order.
func HeadingNodes(doc *html.Node, contentID string) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if headingLevel(n.Data) > 0 {
				nodes = append(nodes, n)
				return
			}
			switch n.Data {
			case "script", "style", "nav":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(ContentRoot(doc, contentID))
	return nodes
}

// HeadingFromNode reads a heading element, including its id and title overrides.
func HeadingFromNode(n *html.Node) navtree.Heading {
	return navtree.Heading{
		Level: headingLevel(n.Data),
		Text:  textContent(n),
		Title: strings.TrimSpace(Attr(n, TitleAttr)),
		ID:    strings.TrimSpace(Attr(n, "id")),
	}
}

// Attr returns the value of an attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// FindByID returns the first element with the given id.
func FindByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && Attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// FindBody returns the <body> element, or nil.
func FindBody(doc *html.Node) *html.Node {
	return findBody(doc)
}
