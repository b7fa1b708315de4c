package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/valve.report/internal/store"
)

type createSessionRequest struct {
	ContainerID int64   `json:"container_id"`
	SessionName string  `json:"session_name"`
	Operator    *string `json:"operator"`
	Notes       *string `json:"notes"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ContainerID < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "container_id is required")
		return
	}

	c, err := s.store.GetContainer(req.ContainerID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to look up container: %v", err))
		return
	}
	if c == nil {
		s.writeJSONError(w, http.StatusNotFound,
			fmt.Sprintf("container %d not found", req.ContainerID))
		return
	}

	sess := &store.Session{
		ContainerID: req.ContainerID,
		SessionName: req.SessionName,
		Operator:    req.Operator,
		Notes:       req.Notes,
	}
	if err := s.store.CreateSession(sess); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to create session: %v", err))
		return
	}

	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/api/sessions/")
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		s.getSession(w, id)
	case tail == "complete" && r.Method == http.MethodPost:
		s.completeSession(w, id)
	case tail == "" || tail == "complete":
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		s.writeJSONError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) getSession(w http.ResponseWriter, id int64) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to get session: %v", err))
		return
	}
	if sess == nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("session %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) completeSession(w http.ResponseWriter, id int64) {
	ok, err := s.store.CompleteSession(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to complete session: %v", err))
		return
	}
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("session %d not found", id))
		return
	}

	sess, err := s.store.GetSession(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to get session: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}
