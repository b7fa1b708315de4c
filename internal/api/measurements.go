package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/valve.report/internal/store"
)

// createMeasurementRequest mirrors the websocket save payload for clients
// that record results over plain REST instead.
type createMeasurementRequest struct {
	ContainerID  int64              `json:"container_id"`
	SessionID    *int64             `json:"session_id"`
	TargetType   string             `json:"target_type"`
	PitchDeg     float64            `json:"pitch_deg"`
	RollDeg      float64            `json:"roll_deg"`
	Basis        string             `json:"basis"`
	ROIJSON      json.RawMessage    `json:"roi_json"`
	ROICenter    map[string]float64 `json:"roi_center"`
	ROISize      map[string]float64 `json:"roi_size"`
	DistanceM    *float64           `json:"distance_m"`
	PointCount   *int64             `json:"point_count"`
	InlierRatio  *float64           `json:"inlier_ratio"`
	ResidualRMS  *float64           `json:"residual_rms"`
	QualityScore *float64           `json:"quality_score"`
	IMUJSON      json.RawMessage    `json:"imu_data_json"`
	Note         *string            `json:"measurement_note"`
	Operator     *string            `json:"operator"`
}

func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMeasurements(w, r)
	case http.MethodPost:
		s.createMeasurement(w, r)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listMeasurements(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePaging(r)
	filter := store.MeasurementFilter{
		TargetType: r.URL.Query().Get("target_type"),
	}
	if c := r.URL.Query().Get("container_id"); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil || id < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'container_id' parameter")
			return
		}
		filter.ContainerID = id
	}
	if sid := r.URL.Query().Get("session_id"); sid != "" {
		id, err := strconv.ParseInt(sid, 10, 64)
		if err != nil || id < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'session_id' parameter")
			return
		}
		filter.SessionID = id
	}

	items, pg, err := s.store.ListMeasurements(filter, page, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list measurements: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"measurements": items,
		"pagination":   pg,
	})
}

func (s *Server) createMeasurement(w http.ResponseWriter, r *http.Request) {
	var req createMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	switch req.TargetType {
	case "A", "B", "C", "D":
	default:
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid target_type %q", req.TargetType))
		return
	}
	if req.Basis != "imu" && req.Basis != "plane" {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid basis %q", req.Basis))
		return
	}
	if req.PitchDeg < -180 || req.PitchDeg > 180 || req.RollDeg < -180 || req.RollDeg > 180 {
		s.writeJSONError(w, http.StatusBadRequest, "pitch_deg and roll_deg must be within ±180")
		return
	}
	if req.ContainerID < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "container_id is required")
		return
	}

	container, err := s.store.GetContainer(req.ContainerID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to get container: %v", err))
		return
	}
	if container == nil {
		s.writeJSONError(w, http.StatusNotFound,
			fmt.Sprintf("container %d not found", req.ContainerID))
		return
	}

	m := &store.Measurement{
		ContainerID:  req.ContainerID,
		SessionID:    req.SessionID,
		TargetType:   req.TargetType,
		PitchDeg:     req.PitchDeg,
		RollDeg:      req.RollDeg,
		Basis:        req.Basis,
		DistanceM:    req.DistanceM,
		PointCount:   req.PointCount,
		InlierRatio:  req.InlierRatio,
		ResidualRMS:  req.ResidualRMS,
		QualityScore: req.QualityScore,
		Note:         req.Note,
		Operator:     req.Operator,
	}
	if len(req.ROIJSON) > 0 {
		m.ROIJSON = string(req.ROIJSON)
	}
	if len(req.IMUJSON) > 0 {
		m.IMUJSON = string(req.IMUJSON)
	}
	if req.ROICenter != nil {
		if v, ok := req.ROICenter["x"]; ok {
			m.ROICenterX = &v
		}
		if v, ok := req.ROICenter["y"]; ok {
			m.ROICenterY = &v
		}
		if v, ok := req.ROICenter["z"]; ok {
			m.ROICenterZ = &v
		}
	}
	if req.ROISize != nil {
		if v, ok := req.ROISize["width"]; ok {
			m.ROIWidth = &v
		}
		if v, ok := req.ROISize["height"]; ok {
			m.ROIHeight = &v
		}
		if v, ok := req.ROISize["depth"]; ok {
			m.ROIDepth = &v
		}
	}

	if err := s.store.SaveMeasurement(m); err != nil {
		// CHECK constraints catch out-of-range quality and distance values.
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to save measurement: %v", err))
		return
	}

	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleMeasurementByID(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/api/measurements/")
	if err != nil || tail != "" {
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := s.store.GetMeasurement(id)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to get measurement: %v", err))
			return
		}
		if m == nil {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("measurement %d not found", id))
			return
		}
		s.writeJSON(w, http.StatusOK, m)

	case http.MethodDelete:
		ok, err := s.store.DeleteMeasurement(id)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to delete measurement: %v", err))
			return
		}
		if !ok {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("measurement %d not found", id))
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
