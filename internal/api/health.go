package api

import (
	"net/http"
	"time"
)

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	dbStatus := "ok"
	status := http.StatusOK
	if !s.store.Ping() {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":            dbStatus,
		"database":          dbStatus,
		"connected_clients": s.clients(),
		"version":           s.version,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}
