package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/valve.report/internal/store"
)

type createContainerRequest struct {
	ContainerNumber string  `json:"container_number"`
	ProcessedDate   string  `json:"processed_date"`
	Description     *string `json:"description"`
	Location        *string `json:"location"`
	CreatedBy       *string `json:"created_by"`
}

func (s *Server) handleContainers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listContainers(w, r)
	case http.MethodPost:
		s.createContainer(w, r)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listContainers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePaging(r)
	status := r.URL.Query().Get("status")

	items, pg, err := s.store.ListContainers(status, page, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list containers: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"containers": items,
		"pagination": pg,
	})
}

func (s *Server) createContainer(w http.ResponseWriter, r *http.Request) {
	var req createContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ContainerNumber == "" {
		s.writeJSONError(w, http.StatusBadRequest, "container_number is required")
		return
	}
	date, err := store.ParseDate(req.ProcessedDate)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := &store.Container{
		ContainerNumber: req.ContainerNumber,
		ProcessedDate:   date,
		Description:     req.Description,
		Location:        req.Location,
		CreatedBy:       req.CreatedBy,
	}
	if err := s.store.CreateContainer(c); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			s.writeJSONError(w, http.StatusConflict,
				fmt.Sprintf("container %s already exists for %s", req.ContainerNumber, date))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to create container: %v", err))
		return
	}

	s.writeJSON(w, http.StatusCreated, c)
}

// pathID extracts the numeric id segment following the given prefix,
// returning the id and any remaining path.
func pathID(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	idPart, tail, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id < 1 {
		return 0, "", fmt.Errorf("invalid id %q", idPart)
	}
	return id, tail, nil
}

func (s *Server) handleContainerByID(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/api/containers/")
	if err != nil || tail != "" {
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	c, err := s.store.GetContainer(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to get container: %v", err))
		return
	}
	if c == nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("container %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}
