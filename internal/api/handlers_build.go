package api

import (
	"net/http"

	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleBuild queues an asynchronous navigation build.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		title = r.FormValue("title")
	}

	job := pipeline.NewJob(filename, title, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("build queued", "job_id", job.ID, "filename", filename)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(pipeline.StatusQueued),
	})
}

func (s *Server) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleBuildResult returns the rendered page for renderable documents, or
// the navigation tree otherwise. "?format=json" always returns the tree.
func (s *Server) handleBuildResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, snap)
		return
	default:
		writeJSON(w, http.StatusConflict, snap)
		return
	}

	tree, page := job.Result()
	if page != nil && r.URL.Query().Get("format") != "json" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
		return
	}
	writeJSON(w, http.StatusOK, navResponse{
		Title:    tree.Title,
		Entries:  tree.Entries,
		Warnings: snap.Progress.Warnings,
	})
}
