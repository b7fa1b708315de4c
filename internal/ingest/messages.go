package ingest

import (
	"encoding/json"
	"time"
)

// Inbound message types.
const (
	TypeLidarData       = "lidar_data"
	TypeSaveMeasurement = "save_measurement"
	TypePing            = "ping"
)

// Outbound message types.
const (
	TypeConnection   = "connection"
	TypeAngleResult  = "angle_result"
	TypeSaveResponse = "save_response"
	TypePong         = "pong"
	TypeError        = "error"
)

// Error codes carried on outbound error messages.
const (
	CodeInvalidJSON        = "INVALID_JSON"
	CodeNoPoints           = "NO_POINTS"
	CodeUnknownMessageType = "UNKNOWN_MESSAGE_TYPE"
	CodeFitError           = "FIT_ERROR"
	CodeProcessingError    = "PROCESSING_ERROR"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeMissingData        = "MISSING_DATA"
	CodeValidationError    = "VALIDATION_ERROR"
)

// envelope carries just enough to dispatch; the full payload is re-decoded
// by the per-type handler.
type envelope struct {
	Type string `json:"type"`
}

// PointMessage is one point of an inbound cloud.
type PointMessage struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IMUMessage is the optional device-orientation block on lidar_data.
type IMUMessage struct {
	Gravity *PointMessage `json:"gravity"`
}

// LidarDataMessage is an inbound point-cloud estimation request.
// GroundPoints are optional and only consulted for the plane basis (or as
// an IMU fallback).
type LidarDataMessage struct {
	Type         string          `json:"type"`
	TargetType   string          `json:"target_type"`
	Points       []PointMessage  `json:"points"`
	Basis        string          `json:"basis"`
	IMU          *IMUMessage     `json:"imu"`
	GroundPoints []PointMessage  `json:"ground_points,omitempty"`
	ROI          json.RawMessage `json:"roi"`
}

// QualityMessage mirrors the quality block on outbound results.
type QualityMessage struct {
	InlierRatio  float64 `json:"inlier_ratio"`
	ResidualRMS  float64 `json:"residual_rms"`
	QualityScore float64 `json:"quality_score"`
}

// MeasurementData is the save-ready payload echoed back with each
// angle_result so the client can submit it unchanged on save_measurement.
type MeasurementData struct {
	TargetType string          `json:"target_type"`
	Pitch      float64         `json:"pitch"`
	Roll       float64         `json:"roll"`
	Basis      string          `json:"basis"`
	Quality    QualityMessage  `json:"quality"`
	IMU        *IMUMessage     `json:"imu"`
	ROI        json.RawMessage `json:"roi"`
	Distance   *float64        `json:"distance"`
	PointCount int             `json:"point_count"`
}

// AngleResultMessage is the outbound success response to lidar_data.
type AngleResultMessage struct {
	Type             string          `json:"type"`
	TargetType       string          `json:"target_type"`
	Pitch            float64         `json:"pitch"`
	Roll             float64         `json:"roll"`
	Basis            string          `json:"basis"`
	Quality          QualityMessage  `json:"quality"`
	MeasurementID    int64           `json:"measurement_id"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Warning          string          `json:"warning,omitempty"`
	Timestamp        string          `json:"timestamp"`
	MeasurementData  MeasurementData `json:"measurement_data"`
}

// SaveMeasurementMessage is an inbound request to persist a result.
type SaveMeasurementMessage struct {
	Type            string           `json:"type"`
	MeasurementID   int64            `json:"measurement_id"`
	ContainerNumber string           `json:"container_number"`
	ProcessedDate   string           `json:"processed_date"`
	SessionID       *int64           `json:"session_id"`
	Operator        string           `json:"operator"`
	Note            *string          `json:"note"`
	MeasurementData *MeasurementData `json:"measurement_data"`
}

// SaveResponseMessage is the outbound confirmation for save_measurement.
type SaveResponseMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	MeasurementID int64  `json:"measurement_id"`
	ContainerID   int64  `json:"container_id"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
}

// ConnectionMessage greets a newly connected client.
type ConnectionMessage struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	Status        string `json:"status"`
	ServerVersion string `json:"server_version"`
	Timestamp     string `json:"timestamp"`
}

// PongMessage answers a ping.
type PongMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// ErrorMessage reports a per-message failure without closing the socket.
type ErrorMessage struct {
	Type      string                 `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func errorMessage(code, msg string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Code: code, Message: msg, Timestamp: nowStamp()}
}
