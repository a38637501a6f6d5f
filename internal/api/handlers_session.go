package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/session"
	"github.com/go-chi/chi/v5"
)

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	navResponse
}

type layoutRequest struct {
	Offsets map[string]float64 `json:"offsets"`
}

type layoutResponse struct {
	Positions []navtree.HeaderPosition `json:"positions"`
}

type selectionResponse struct {
	Selected string `json:"selected"`
	Changed  bool   `json:"changed"`
}

type scrollResponse struct {
	From       float64 `json:"from"`
	To         float64 `json:"to"`
	DurationMS int64   `json:"duration_ms"`
	Fragment   string  `json:"fragment"`
}

func newScrollResponse(sc navigator.Scroll) scrollResponse {
	return scrollResponse{
		From:       sc.From,
		To:         sc.To,
		DurationMS: sc.Duration.Milliseconds(),
		Fragment:   sc.Fragment,
	}
}

// handleCreateSession builds the tree of an uploaded document and keeps a
// navigator for it until the page goes away.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
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
	sess := s.sessions.Create(navigator.New(tree, s.cfg.ScrollDuration))

	s.log.Info("session created", "session_id", sess.ID, "filename", filename, "entries", len(tree.Order))
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		navResponse: navResponse{
			Title:    tree.Title,
			Entries:  tree.Entries,
			Warnings: navigator.Warnings(navigator.Validate(doc, opts)),
		},
	})
}

// handleLayout replaces the position cache with freshly measured offsets.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req layoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid layout: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess.Nav.Rebuild(navigator.OffsetMap(req.Offsets))
	writeJSON(w, http.StatusOK, layoutResponse{Positions: sess.Nav.Positions()})
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	offset, err := strconv.ParseFloat(r.URL.Query().Get("offset"), 64)
	if err != nil {
		jsonError(w, "offset must be a number", http.StatusBadRequest)
		return
	}
	selected, changed := sess.Nav.Update(offset)
	writeJSON(w, http.StatusOK, selectionResponse{Selected: selected, Changed: changed})
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var from float64
	if v := r.URL.Query().Get("from"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			jsonError(w, "from must be a number", http.StatusBadRequest)
			return
		}
		from = f
	}

	sc, err := sess.Nav.ScrollTo(r.URL.Query().Get("target"), from)
	if errors.Is(err, navigator.ErrUnknownTarget) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newScrollResponse(sc))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "sessionID")) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// session looks up the session named in the URL, writing a 404 when absent.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return sess
}
