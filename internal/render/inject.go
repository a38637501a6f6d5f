package render

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options configures page rendering.
type Options struct {
	ContentID      string // Element holding the page content.
	RootID         string // Element the navigation is attached under.
	HighlightStyle string // Chroma style for Markdown code blocks.
	Nav            navigator.Options
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ContentID:      "jd-content",
		RootID:         "doc-nav",
		HighlightStyle: "github",
		Nav:            navigator.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ContentID == "" {
		o.ContentID = def.ContentID
	}
	if o.RootID == "" {
		o.RootID = def.RootID
	}
	if o.Nav == (navigator.Options{}) {
		o.Nav = def.Nav
	}
	return o
}

// Inject assigns heading identifiers in the document and attaches the
// navigation under the root element. The headings must be those the tree
// was built from, in the same order.
func Inject(doc *html.Node, tree *navtree.Tree, opts Options) {
	opts = opts.withDefaults()
	i := 0
	for _, n := range parser.HeadingNodes(doc, opts.ContentID) {
		h := parser.HeadingFromNode(n)
		if !opts.Nav.Includes(h.Level) {
			continue
		}
		if i >= len(tree.Order) {
			break
		}
		parser.SetAttr(n, "id", tree.Order[i].HeadingID)
		i++
	}

	root := parser.FindByID(doc, opts.RootID)
	if root == nil {
		root = element(atom.Nav, html.Attribute{Key: "id", Val: opts.RootID})
		body := parser.FindBody(doc)
		if body == nil {
			body = doc
		}
		body.InsertBefore(root, body.FirstChild)
	}
	root.AppendChild(NavNodes(tree, ""))
}

// Page reads an HTML or Markdown document and returns it as an HTML page
// with heading identifiers assigned and the navigation attached.
func Page(r io.Reader, filename string, opts Options) ([]byte, *navtree.Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", filename, err)
	}
	opts = opts.withDefaults()

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		src, err = MarkdownPage(src, title, opts)
		if err != nil {
			return nil, nil, err
		}
	case ".html", ".htm":
	default:
		return nil, nil, fmt.Errorf("cannot render %s", filepath.Ext(filename))
	}

	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	tree := navigator.Build(parser.FromNode(doc, filename, opts.ContentID), opts.Nav)
	Inject(doc, tree, opts)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), tree, nil
}
