package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/render"
	"github.com/dgallion1/docnav/internal/sitetoc"
)

// navResponse is returned wherever a navigation tree is produced.
type navResponse struct {
	Title    string              `json:"title"`
	Entries  []*navtree.NavEntry `json:"entries"`
	Warnings []string            `json:"warnings"`
}

// handleNav builds the navigation tree of an uploaded document.
func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	doc, err := s.parse(filename, data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	opts := s.cfg.NavOptions()
	tree := navigator.Build(doc, opts)
	writeJSON(w, http.StatusOK, navResponse{
		Title:    tree.Title,
		Entries:  tree.Entries,
		Warnings: navigator.Warnings(navigator.Validate(doc, opts)),
	})
}

// handleRender returns the uploaded HTML or Markdown page with navigation.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	if !parser.IsRenderable(filename) {
		jsonError(w, fmt.Sprintf("cannot render file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	page, _, err := render.Page(bytes.NewReader(data), filename, s.cfg.RenderOptions())
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleTOC parses a site table-of-contents fragment and locates the
// active page in it.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	root := r.URL.Query().Get("root")
	if root == "" {
		root = s.cfg.SiteRoot
	}

	toc, err := sitetoc.Parse(r.Body, root)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	trail := []string{}
	for _, e := range toc.Trail(r.URL.Query().Get("active")) {
		trail = append(trail, e.Title)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": toc.Entries,
		"trail":   trail,
	})
}

func (s *Server) parse(filename string, data []byte) (*navtree.Document, error) {
	p, err := parser.ForFile(filename, s.cfg.ParserOptions())
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data), filename)
}

// readDocument accepts either a multipart form with a "file" field or a raw
// body named by the "filename" query parameter. It writes the error
// response itself and reports whether the caller should continue.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var filename string
	var src io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return "", nil, false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return "", nil, false
		}
		defer file.Close()
		filename, src = header.Filename, file
	} else {
		filename, src = r.URL.Query().Get("filename"), r.Body
		if filename == "" {
			jsonError(w, "filename query parameter is required", http.StatusBadRequest)
			return "", nil, false
		}
	}

	filename = sanitizeFilename(filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err := io.ReadAll(io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusBadRequest)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
