package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<nav id="{{.RootID}}"></nav>
<div id="{{.ContentID}}">
{{.Content}}
</div>
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// NewMarkdown returns the goldmark instance used for documentation pages.
func NewMarkdown(style string) goldmark.Markdown {
	if style == "" {
		style = "github"
	}
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
}

// MarkdownPage renders Markdown into a full page whose content region and
// navigation root use the configured element ids.
func MarkdownPage(src []byte, title string, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	var body bytes.Buffer
	if err := NewMarkdown(opts.HighlightStyle).Convert(src, &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTmpl.Execute(&page, map[string]any{
		"Title":     title,
		"RootID":    opts.RootID,
		"ContentID": opts.ContentID,
		"Content":   template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return page.Bytes(), nil
}
