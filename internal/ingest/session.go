// Package ingest serves the live websocket path: point clouds in, angle
// results out, with an optional save step into the measurement store.
package ingest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang/geo/r3"
	"github.com/gorilla/websocket"

	"github.com/banshee-data/valve.report/internal/geometry"
	"github.com/banshee-data/valve.report/internal/store"
)

// Handler upgrades HTTP requests on the lidar endpoint and runs one read
// loop per client. A malformed message gets an error reply; the socket
// stays open until the client disconnects.
type Handler struct {
	engine   *geometry.Engine
	store    *store.Store
	hub      *Hub
	version  string
	upgrader websocket.Upgrader
}

func NewHandler(engine *geometry.Engine, st *store.Store, hub *Hub, version string) *Handler {
	return &Handler{
		engine:  engine,
		store:   st,
		hub:     hub,
		version: version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 20,
			WriteBufferSize: 64 << 10,
			// Clients are local capture devices, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Ingest] upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	id := h.hub.Register(r.RemoteAddr)
	defer h.hub.Unregister(id)
	log.Printf("[Ingest] client connected: %s (%s)", r.RemoteAddr, id)

	if err := conn.WriteJSON(ConnectionMessage{
		Type:          TypeConnection,
		Message:       "connected to lidar server",
		Status:        "connected",
		ServerVersion: h.version,
		Timestamp:     nowStamp(),
	}); err != nil {
		log.Printf("[Ingest] greeting failed for %s: %v", id, err)
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[Ingest] client disconnected: %s (%s)", r.RemoteAddr, id)
			return
		}
		h.handleMessage(conn, raw)
	}
}

func (h *Handler) handleMessage(conn *websocket.Conn, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.send(conn, errorMessage(CodeInvalidJSON, fmt.Sprintf("invalid JSON: %v", err)))
		return
	}

	switch env.Type {
	case TypeLidarData:
		h.handleLidarData(conn, raw)
	case TypeSaveMeasurement:
		h.handleSaveMeasurement(conn, raw)
	case TypePing:
		h.send(conn, PongMessage{Type: TypePong, Timestamp: nowStamp()})
	default:
		log.Printf("[Ingest] unknown message type: %q", env.Type)
		h.send(conn, errorMessage(CodeUnknownMessageType,
			fmt.Sprintf("unknown message type: %s", env.Type)))
	}
}

func (h *Handler) handleLidarData(conn *websocket.Conn, raw []byte) {
	var msg LidarDataMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.send(conn, errorMessage(CodeInvalidJSON, fmt.Sprintf("invalid lidar_data: %v", err)))
		return
	}
	log.Printf("[Ingest] lidar_data: target_type=%s points=%d", msg.TargetType, len(msg.Points))

	if len(msg.Points) == 0 {
		h.send(conn, errorMessage(CodeNoPoints, "point cloud is empty"))
		return
	}

	points := make([]r3.Vector, len(msg.Points))
	for i, p := range msg.Points {
		points[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
	}

	if msg.TargetType == "" {
		msg.TargetType = string(geometry.TargetStemAxis)
	}

	basis := geometry.Basis(msg.Basis)
	if basis == "" {
		basis = geometry.BasisIMU
	}

	var imu *geometry.IMUFrame
	if msg.IMU != nil && msg.IMU.Gravity != nil {
		g := r3.Vector{X: msg.IMU.Gravity.X, Y: msg.IMU.Gravity.Y, Z: msg.IMU.Gravity.Z}
		imu = &geometry.IMUFrame{Gravity: &g}
	}

	var ground []r3.Vector
	if len(msg.GroundPoints) > 0 {
		ground = make([]r3.Vector, len(msg.GroundPoints))
		for i, p := range msg.GroundPoints {
			ground[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
		}
	}

	result := h.engine.EstimateAngle(geometry.Request{
		Points:       points,
		TargetType:   geometry.TargetType(msg.TargetType),
		Basis:        basis,
		IMU:          imu,
		GroundPoints: ground,
	})

	if !result.Success {
		h.send(conn, ErrorMessage{
			Type:    TypeError,
			Code:    CodeFitError,
			Message: result.ErrorMessage,
			Details: map[string]interface{}{
				"inlier_ratio": result.Quality.InlierRatio,
				"residual_rms": result.Quality.ResidualRMS,
				"min_required": h.engine.Config().Quality.MinInlierRatio,
			},
			Timestamp: nowStamp(),
		})
		return
	}

	quality := QualityMessage{
		InlierRatio:  result.Quality.InlierRatio,
		ResidualRMS:  result.Quality.ResidualRMS,
		QualityScore: result.Quality.QualityScore,
	}

	// Provisional id until the client decides to save.
	measurementID := time.Now().UnixMilli() % 1000000

	h.send(conn, AngleResultMessage{
		Type:             TypeAngleResult,
		TargetType:       msg.TargetType,
		Pitch:            result.PitchDeg,
		Roll:             result.RollDeg,
		Basis:            string(result.BasisUsed),
		Quality:          quality,
		MeasurementID:    measurementID,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Warning:          result.Warning,
		Timestamp:        nowStamp(),
		MeasurementData: MeasurementData{
			TargetType: msg.TargetType,
			Pitch:      result.PitchDeg,
			Roll:       result.RollDeg,
			Basis:      string(result.BasisUsed),
			Quality:    quality,
			IMU:        msg.IMU,
			ROI:        msg.ROI,
			PointCount: len(msg.Points),
		},
	})

	log.Printf("[Ingest] angle result: pitch=%.1f roll=%.1f basis=%s",
		result.PitchDeg, result.RollDeg, result.BasisUsed)
}

// roiShape is the optional structured ROI on measurement_data.
type roiShape struct {
	Center *PointMessage `json:"center"`
	Size   *struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Depth  float64 `json:"depth"`
	} `json:"size"`
}

func (h *Handler) handleSaveMeasurement(conn *websocket.Conn, raw []byte) {
	var msg SaveMeasurementMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.send(conn, errorMessage(CodeInvalidJSON, fmt.Sprintf("invalid save_measurement: %v", err)))
		return
	}
	log.Printf("[Ingest] save request: measurement_id=%d", msg.MeasurementID)

	if !h.store.Ping() {
		h.send(conn, errorMessage(CodeDatabaseError, "database is unreachable"))
		return
	}
	if msg.MeasurementData == nil {
		h.send(conn, errorMessage(CodeMissingData, "measurement_data is missing"))
		return
	}

	containerNumber := msg.ContainerNumber
	if containerNumber == "" {
		h.send(conn, errorMessage(CodeValidationError, "container_number is required"))
		return
	}
	processedDate := msg.ProcessedDate
	if processedDate == "" {
		processedDate = time.Now().Format("2006-01-02")
	}
	date, err := store.ParseDate(processedDate)
	if err != nil {
		h.send(conn, errorMessage(CodeValidationError, err.Error()))
		return
	}

	var operator *string
	if msg.Operator != "" {
		operator = &msg.Operator
	}

	container, err := h.store.GetOrCreateContainer(containerNumber, date, operator)
	if err != nil {
		h.send(conn, errorMessage(CodeDatabaseError, fmt.Sprintf("container lookup failed: %v", err)))
		return
	}

	// Unknown sessions are dropped, not fatal.
	sessionID := msg.SessionID
	if sessionID != nil {
		sess, err := h.store.GetSession(*sessionID)
		if err != nil {
			h.send(conn, errorMessage(CodeDatabaseError, fmt.Sprintf("session lookup failed: %v", err)))
			return
		}
		if sess == nil {
			log.Printf("[Ingest] session %d not found, saving without one", *sessionID)
			sessionID = nil
		}
	}

	md := msg.MeasurementData
	m := &store.Measurement{
		ContainerID: container.ID,
		SessionID:   sessionID,
		TargetType:  md.TargetType,
		PitchDeg:    md.Pitch,
		RollDeg:     md.Roll,
		Basis:       md.Basis,
		DistanceM:   md.Distance,
		Note:        msg.Note,
		Operator:    operator,
	}
	if md.PointCount > 0 {
		pc := int64(md.PointCount)
		m.PointCount = &pc
	}
	if md.Quality != (QualityMessage{}) {
		m.InlierRatio = &md.Quality.InlierRatio
		m.ResidualRMS = &md.Quality.ResidualRMS
		m.QualityScore = &md.Quality.QualityScore
	}
	if len(md.ROI) > 0 {
		m.ROIJSON = string(md.ROI)
		var roi roiShape
		if err := json.Unmarshal(md.ROI, &roi); err == nil {
			if roi.Center != nil {
				m.ROICenterX, m.ROICenterY, m.ROICenterZ = &roi.Center.X, &roi.Center.Y, &roi.Center.Z
			}
			if roi.Size != nil {
				m.ROIWidth, m.ROIHeight, m.ROIDepth = &roi.Size.Width, &roi.Size.Height, &roi.Size.Depth
			}
		}
	}
	if md.IMU != nil {
		if b, err := json.Marshal(md.IMU); err == nil {
			m.IMUJSON = string(b)
		}
	}

	if err := h.store.SaveMeasurement(m); err != nil {
		h.send(conn, errorMessage(CodeDatabaseError, fmt.Sprintf("save failed: %v", err)))
		return
	}

	h.send(conn, SaveResponseMessage{
		Type:          TypeSaveResponse,
		Status:        "saved",
		MeasurementID: m.ID,
		ContainerID:   container.ID,
		Message:       "measurement saved",
		Timestamp:     nowStamp(),
	})
}

func (h *Handler) send(conn *websocket.Conn, v interface{}) {
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("[Ingest] write failed: %v", err)
	}
}
