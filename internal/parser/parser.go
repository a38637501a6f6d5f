package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Parser extracts the heading outline of a document.
type Parser interface {
	Parse(r io.Reader, filename string) (*navtree.Document, error)
}

// Options configures parsers that need to know about page structure.
type Options struct {
	ContentID string // id of the element holding the page content (HTML only)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Renderable lists extensions that can be turned into a page with navigation.
var Renderable = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{ContentID: opts.ContentID}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsRenderable checks if a file can be rendered with navigation injected.
func IsRenderable(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return Renderable[ext]
}

func trimExt(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}
