package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser reads headings from the PDF outline (bookmarks). Top-level
// bookmarks become level 2 headings, their children level 3, and so on.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*navtree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	out := &navtree.Document{Title: trimExt(filename)}
	out.Headings = outlineHeadings(reader.Outline().Child, 2)
	return out, nil
}

func outlineHeadings(items []pdflib.Outline, level int) []navtree.Heading {
	var out []navtree.Heading
	for _, item := range items {
		if title := strings.TrimSpace(item.Title); title != "" {
			out = append(out, navtree.Heading{Level: level, Text: title})
		}
		out = append(out, outlineHeadings(item.Child, level+1)...)
	}
	return out
}
