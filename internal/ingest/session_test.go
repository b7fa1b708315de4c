package ingest

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/valve.report/internal/geometry"
	"github.com/banshee-data/valve.report/internal/store"
)

type testClient struct {
	conn *websocket.Conn
}

func newTestClient(t *testing.T) (*testClient, *store.Store, *Hub) {
	t.Helper()

	st, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hub := NewHub()
	handler := NewHandler(geometry.NewEngine(geometry.DefaultConfig()), st, hub, "test")

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &testClient{conn: conn}

	// Every connection starts with a greeting.
	greeting := c.read(t)
	if greeting["type"] != TypeConnection {
		t.Fatalf("greeting type = %v, want %s", greeting["type"], TypeConnection)
	}
	return c, st, hub
}

func (c *testClient) send(t *testing.T, v interface{}) {
	t.Helper()
	if err := c.conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (c *testClient) sendRaw(t *testing.T, raw string) {
	t.Helper()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write raw: %v", err)
	}
}

func (c *testClient) read(t *testing.T) map[string]interface{} {
	t.Helper()
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return msg
}

// flatCloud builds a dense grid on the z=0 plane, enough points to clear
// the preprocessing minimum.
func flatCloud() []PointMessage {
	points := make([]PointMessage, 0, 144)
	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			points = append(points, PointMessage{
				X: -0.5 + float64(i)/11.0,
				Y: -0.5 + float64(j)/11.0,
				Z: 0,
			})
		}
	}
	return points
}

func TestPingPong(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.send(t, map[string]string{"type": TypePing})
	msg := c.read(t)
	if msg["type"] != TypePong {
		t.Errorf("type = %v, want pong", msg["type"])
	}
}

func TestUnknownMessageType(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.send(t, map[string]string{"type": "teleport"})
	msg := c.read(t)
	if msg["type"] != TypeError || msg["code"] != CodeUnknownMessageType {
		t.Errorf("got %v / %v, want error / UNKNOWN_MESSAGE_TYPE", msg["type"], msg["code"])
	}
}

func TestInvalidJSONKeepsSocketOpen(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.sendRaw(t, "{not json")
	msg := c.read(t)
	if msg["code"] != CodeInvalidJSON {
		t.Errorf("code = %v, want INVALID_JSON", msg["code"])
	}

	// The connection survives and keeps answering.
	c.send(t, map[string]string{"type": TypePing})
	msg = c.read(t)
	if msg["type"] != TypePong {
		t.Errorf("type = %v, want pong after error", msg["type"])
	}
}

func TestLidarDataEmptyCloud(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.send(t, LidarDataMessage{Type: TypeLidarData, TargetType: "B", Points: nil})
	msg := c.read(t)
	if msg["code"] != CodeNoPoints {
		t.Errorf("code = %v, want NO_POINTS", msg["code"])
	}
}

func TestLidarDataAngleResult(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.send(t, LidarDataMessage{
		Type:       TypeLidarData,
		TargetType: "B",
		Points:     flatCloud(),
	})
	msg := c.read(t)
	if msg["type"] != TypeAngleResult {
		t.Fatalf("type = %v, want angle_result (msg=%v)", msg["type"], msg)
	}
	if msg["pitch"] != 0.0 || msg["roll"] != 0.0 {
		t.Errorf("pitch/roll = %v/%v, want 0/0 for a flat plane", msg["pitch"], msg["roll"])
	}
	if msg["basis"] != string(geometry.BasisUsedIMUFallback) {
		t.Errorf("basis = %v, want %s", msg["basis"], geometry.BasisUsedIMUFallback)
	}

	md := msg["measurement_data"].(map[string]interface{})
	if md["point_count"] != float64(144) {
		t.Errorf("point_count = %v, want 144", md["point_count"])
	}
	if md["target_type"] != "B" {
		t.Errorf("target_type = %v, want B", md["target_type"])
	}
}

// verticalLine builds a noise-free cloud along the Z axis, enough points
// to clear the preprocessing minimum.
func verticalLine() []PointMessage {
	points := make([]PointMessage, 144)
	for i := range points {
		points[i] = PointMessage{Z: float64(i) * 0.01}
	}
	return points
}

func TestLidarDataDefaultsTargetType(t *testing.T) {
	c, _, _ := newTestClient(t)

	// No target_type on the frame: the stem axis is assumed.
	c.send(t, LidarDataMessage{
		Type:   TypeLidarData,
		Points: verticalLine(),
	})
	msg := c.read(t)
	if msg["type"] != TypeAngleResult {
		t.Fatalf("type = %v, want angle_result (msg=%v)", msg["type"], msg)
	}
	if msg["target_type"] != "A" {
		t.Errorf("target_type = %v, want A", msg["target_type"])
	}
	md := msg["measurement_data"].(map[string]interface{})
	if md["target_type"] != "A" {
		t.Errorf("measurement_data.target_type = %v, want A", md["target_type"])
	}
	if msg["pitch"] != 0.0 || msg["roll"] != 0.0 {
		t.Errorf("pitch/roll = %v/%v, want 0/0 for a vertical axis", msg["pitch"], msg["roll"])
	}
}

func TestLidarDataPlaneBasisWithGroundPoints(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.send(t, LidarDataMessage{
		Type:         TypeLidarData,
		TargetType:   "B",
		Basis:        "plane",
		Points:       flatCloud(),
		GroundPoints: flatCloud(),
	})
	msg := c.read(t)
	if msg["type"] != TypeAngleResult {
		t.Fatalf("type = %v, want angle_result (msg=%v)", msg["type"], msg)
	}
	if msg["basis"] != string(geometry.BasisUsedPlane) {
		t.Errorf("basis = %v, want %s", msg["basis"], geometry.BasisUsedPlane)
	}
	if msg["pitch"] != 0.0 || msg["roll"] != 0.0 {
		t.Errorf("pitch/roll = %v/%v, want 0/0", msg["pitch"], msg["roll"])
	}
}

func TestLidarDataQualityRejection(t *testing.T) {
	c, _, _ := newTestClient(t)

	// A cloud with no planar structure fails the quality gate.
	points := make([]PointMessage, 0, 150)
	for i := 0; i < 150; i++ {
		points = append(points, PointMessage{
			X: float64(i%17) * 0.13,
			Y: float64(i%23) * 0.19,
			Z: float64(i%29) * 0.23,
		})
	}
	c.send(t, LidarDataMessage{Type: TypeLidarData, TargetType: "B", Points: points})
	msg := c.read(t)
	if msg["type"] != TypeError || msg["code"] != CodeFitError {
		t.Fatalf("got %v / %v, want error / FIT_ERROR", msg["type"], msg["code"])
	}
	details := msg["details"].(map[string]interface{})
	if details["min_required"] != 0.6 {
		t.Errorf("min_required = %v, want 0.6", details["min_required"])
	}
}

func TestSaveMeasurementMissingData(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.send(t, map[string]interface{}{
		"type":             TypeSaveMeasurement,
		"container_number": "CNT-1",
	})
	msg := c.read(t)
	if msg["code"] != CodeMissingData {
		t.Errorf("code = %v, want MISSING_DATA", msg["code"])
	}
}

func TestSaveMeasurementValidation(t *testing.T) {
	c, _, _ := newTestClient(t)

	c.send(t, SaveMeasurementMessage{
		Type: TypeSaveMeasurement,
		MeasurementData: &MeasurementData{
			TargetType: "A", Pitch: 1, Roll: 2, Basis: "imu",
		},
	})
	msg := c.read(t)
	if msg["code"] != CodeValidationError {
		t.Errorf("code = %v, want VALIDATION_ERROR for missing container_number", msg["code"])
	}
}

func TestSaveMeasurementRoundTrip(t *testing.T) {
	c, st, _ := newTestClient(t)

	roi := json.RawMessage(`{"center":{"x":1,"y":2,"z":3},"size":{"width":0.2,"height":0.3,"depth":0.4}}`)
	c.send(t, SaveMeasurementMessage{
		Type:            TypeSaveMeasurement,
		ContainerNumber: "CNT-900",
		ProcessedDate:   "2026-08-22",
		Operator:        "alice",
		MeasurementData: &MeasurementData{
			TargetType: "B",
			Pitch:      12.3,
			Roll:       -4.5,
			Basis:      "imu",
			Quality:    QualityMessage{InlierRatio: 0.95, ResidualRMS: 0.002, QualityScore: 0.76},
			ROI:        roi,
			PointCount: 512,
		},
	})

	msg := c.read(t)
	if msg["type"] != TypeSaveResponse {
		t.Fatalf("type = %v, want save_response (msg=%v)", msg["type"], msg)
	}
	if msg["status"] != "saved" {
		t.Errorf("status = %v, want saved", msg["status"])
	}

	id := int64(msg["measurement_id"].(float64))
	m, err := st.GetMeasurement(id)
	if err != nil {
		t.Fatalf("GetMeasurement: %v", err)
	}
	if m == nil {
		t.Fatal("measurement not persisted")
	}
	if m.PitchDeg != 12.3 || m.RollDeg != -4.5 {
		t.Errorf("pitch/roll = %v/%v", m.PitchDeg, m.RollDeg)
	}
	if m.ROICenterX == nil || *m.ROICenterX != 1 {
		t.Errorf("roi_center_x = %v, want 1", m.ROICenterX)
	}
	if m.ROIWidth == nil || *m.ROIWidth != 0.2 {
		t.Errorf("roi_width = %v, want 0.2", m.ROIWidth)
	}
	if m.PointCount == nil || *m.PointCount != 512 {
		t.Errorf("point_count = %v, want 512", m.PointCount)
	}
	if m.InlierRatio == nil || *m.InlierRatio != 0.95 {
		t.Errorf("inlier_ratio = %v, want 0.95", m.InlierRatio)
	}

	// The container was created on demand with the operator recorded.
	container, err := st.GetContainer(m.ContainerID)
	if err != nil {
		t.Fatalf("GetContainer: %v", err)
	}
	if container.ContainerNumber != "CNT-900" {
		t.Errorf("container_number = %q", container.ContainerNumber)
	}
	if container.CreatedBy == nil || *container.CreatedBy != "alice" {
		t.Errorf("created_by = %v, want alice", container.CreatedBy)
	}
}

func TestSaveMeasurementUnknownSessionDropped(t *testing.T) {
	c, st, _ := newTestClient(t)

	bogus := int64(4242)
	c.send(t, SaveMeasurementMessage{
		Type:            TypeSaveMeasurement,
		ContainerNumber: "CNT-901",
		ProcessedDate:   "2026-08-22",
		SessionID:       &bogus,
		MeasurementData: &MeasurementData{TargetType: "A", Pitch: 0, Roll: 0, Basis: "default"},
	})

	msg := c.read(t)
	if msg["type"] != TypeSaveResponse {
		t.Fatalf("type = %v, want save_response (msg=%v)", msg["type"], msg)
	}
	id := int64(msg["measurement_id"].(float64))
	m, err := st.GetMeasurement(id)
	if err != nil {
		t.Fatalf("GetMeasurement: %v", err)
	}
	if m.SessionID != nil {
		t.Errorf("session_id = %v, want nil for unknown session", m.SessionID)
	}
}

func TestHubCountsClients(t *testing.T) {
	c, _, hub := newTestClient(t)

	if hub.Count() != 1 {
		t.Errorf("count = %d, want 1", hub.Count())
	}
	c.conn.Close()

	// The read loop notices the close asynchronously.
	deadlineMet := false
	for i := 0; i < 100; i++ {
		if hub.Count() == 0 {
			deadlineMet = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !deadlineMet {
		t.Error("expected hub to drop the client after disconnect")
	}
}
