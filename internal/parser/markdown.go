package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*navtree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// Attribute syntax lets authors pin identifiers: ## Install {#toc-install}
	md := goldmark.New(goldmark.WithParserOptions(gmparser.WithAttribute()))
	doc := md.Parser().Parse(text.NewReader(src))

	out := &navtree.Document{Title: trimExt(filename)}

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		h := navtree.Heading{
			Level: heading.Level,
			Text:  strings.Join(strings.Fields(inlineText(heading, src)), " "),
		}
		if v, ok := heading.AttributeString("id"); ok {
			if id, ok := v.([]byte); ok {
				h.ID = string(id)
			}
		}
		if v, ok := heading.AttributeString(TitleAttr); ok {
			if t, ok := v.([]byte); ok {
				h.Title = string(t)
			}
		}
		out.Headings = append(out.Headings, h)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// inlineText concatenates the text segments under an inline container.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
