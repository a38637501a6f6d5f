package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/fumiama/go-docx"
	"github.com/google/go-cmp/cmp"
)

func newDocx(t *testing.T, build func(w *docx.Docx)) []byte {
	t.Helper()
	w := docx.New().WithDefaultTheme()
	build(w)
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXParser_Parse(t *testing.T) {
	data := newDocx(t, func(w *docx.Docx) {
		w.AddParagraph().Style("Title").AddText("Operator Manual")
		w.AddParagraph().Style("Heading2").AddText("Install")
		w.AddParagraph().AddText("Download the archive.")
		w.AddParagraph().Style("Heading3").AddText("Linux")
		w.AddParagraph().Style("Heading3").AddText("  ")
		w.AddParagraph().Style("Heading2").AddText("Usage")
	})

	doc, err := (&DOCXParser{}).Parse(bytes.NewReader(data), "manual.docx")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "manual" {
		t.Errorf("expected title %q, got %q", "manual", doc.Title)
	}
	want := []navtree.Heading{
		{Level: 2, Text: "Install"},
		{Level: 3, Text: "Linux"},
		{Level: 2, Text: "Usage"},
	}
	if diff := cmp.Diff(want, doc.Headings); diff != "" {
		t.Errorf("headings mismatch (-want +got):\n%s", diff)
	}
}

func TestDOCXParser_NoHeadings(t *testing.T) {
	data := newDocx(t, func(w *docx.Docx) {
		w.AddParagraph().AddText("Just prose.")
	})

	doc, err := (&DOCXParser{}).Parse(bytes.NewReader(data), "notes.docx")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Headings) != 0 {
		t.Errorf("expected no headings, got %+v", doc.Headings)
	}
}

func TestDOCXParser_Invalid(t *testing.T) {
	_, err := (&DOCXParser{}).Parse(strings.NewReader("not a zip archive"), "broken.docx")
	if err == nil {
		t.Fatal("expected error for invalid docx")
	}
	if !strings.Contains(err.Error(), "parse docx") {
		t.Errorf("expected parse docx error, got %v", err)
	}
}
