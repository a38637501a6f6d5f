package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/fumiama/go-docx"
)

// DOCXParser reads headings from .docx paragraph styles.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*navtree.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docnav-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &navtree.Document{Title: trimExt(filename)}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		level := docxHeadingLevel(para)
		if level == 0 {
			continue
		}
		if text := docxParagraphText(para); text != "" {
			out.Headings = append(out.Headings, navtree.Heading{Level: level, Text: text})
		}
	}
	return out, nil
}

// docxHeadingLevel maps "Heading2" / "heading 2" style names to 2, and so on.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	return docxStyleLevel(para.Properties.Style.Val)
}

func docxStyleLevel(style string) int {
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	rest := strings.TrimPrefix(style, "heading")
	if len(rest) != 1 || rest[0] < '1' || rest[0] > '6' {
		return 0
	}
	return int(rest[0] - '0')
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
