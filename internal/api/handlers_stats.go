package api

import "net/http"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"queue_depth": s.orchestrator.QueueDepth(),
		"sessions":    s.sessions.Len(),
	})
}
