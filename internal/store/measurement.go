package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"time"
)

// Measurement is one persisted angle result plus the caller-supplied
// context (ROI geometry, operator, IMU snapshot).
type Measurement struct {
	ID          int64   `json:"id"`
	ContainerID int64   `json:"container_id"`
	SessionID   *int64  `json:"session_id"`
	TargetType  string  `json:"target_type"`
	PitchDeg    float64 `json:"pitch_deg"`
	RollDeg     float64 `json:"roll_deg"`
	Basis       string  `json:"basis"`

	ROIJSON    string   `json:"roi_json"`
	ROICenterX *float64 `json:"roi_center_x,omitempty"`
	ROICenterY *float64 `json:"roi_center_y,omitempty"`
	ROICenterZ *float64 `json:"roi_center_z,omitempty"`
	ROIWidth   *float64 `json:"roi_width,omitempty"`
	ROIHeight  *float64 `json:"roi_height,omitempty"`
	ROIDepth   *float64 `json:"roi_depth,omitempty"`

	DistanceM    *float64 `json:"distance_m"`
	PointCount   *int64   `json:"point_count"`
	InlierRatio  *float64 `json:"inlier_ratio"`
	ResidualRMS  *float64 `json:"residual_rms"`
	QualityScore *float64 `json:"quality_score"`

	IMUJSON   string    `json:"imu_json,omitempty"`
	Note      *string   `json:"measurement_note,omitempty"`
	Operator  *string   `json:"operator,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const measurementColumns = `
	id, container_id, session_id, target_type, pitch_deg, roll_deg, basis,
	roi_json, roi_center_x, roi_center_y, roi_center_z, roi_width, roi_height, roi_depth,
	distance_m, point_count, inlier_ratio, residual_rms, quality_score,
	imu_json, measurement_note, operator, created_at`

func scanMeasurement(row interface{ Scan(...any) error }) (*Measurement, error) {
	m := &Measurement{}
	err := row.Scan(
		&m.ID, &m.ContainerID, &m.SessionID, &m.TargetType, &m.PitchDeg, &m.RollDeg, &m.Basis,
		&m.ROIJSON, &m.ROICenterX, &m.ROICenterY, &m.ROICenterZ, &m.ROIWidth, &m.ROIHeight, &m.ROIDepth,
		&m.DistanceM, &m.PointCount, &m.InlierRatio, &m.ResidualRMS, &m.QualityScore,
		&m.IMUJSON, &m.Note, &m.Operator, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SaveMeasurement inserts a measurement row. Angles are rounded to 0.1
// degrees on the way in; empty JSON columns default to {}.
func (s *Store) SaveMeasurement(m *Measurement) error {
	m.PitchDeg = math.Round(m.PitchDeg*10) / 10
	m.RollDeg = math.Round(m.RollDeg*10) / 10
	if m.ROIJSON == "" {
		m.ROIJSON = "{}"
	}
	if m.IMUJSON == "" {
		m.IMUJSON = "{}"
	}

	res, err := s.Exec(`
		INSERT INTO measurements (
			container_id, session_id, target_type, pitch_deg, roll_deg, basis,
			roi_json, roi_center_x, roi_center_y, roi_center_z, roi_width, roi_height, roi_depth,
			distance_m, point_count, inlier_ratio, residual_rms, quality_score,
			imu_json, measurement_note, operator
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ContainerID, m.SessionID, m.TargetType, m.PitchDeg, m.RollDeg, m.Basis,
		m.ROIJSON, m.ROICenterX, m.ROICenterY, m.ROICenterZ, m.ROIWidth, m.ROIHeight, m.ROIDepth,
		m.DistanceM, m.PointCount, m.InlierRatio, m.ResidualRMS, m.QualityScore,
		m.IMUJSON, m.Note, m.Operator,
	)
	if err != nil {
		return fmt.Errorf("failed to save measurement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	m.ID = id

	log.Printf("[Store] saved measurement id=%d container=%d target=%s pitch=%.1f roll=%.1f",
		m.ID, m.ContainerID, m.TargetType, m.PitchDeg, m.RollDeg)
	return nil
}

// GetMeasurement returns the measurement or nil when it does not exist.
func (s *Store) GetMeasurement(id int64) (*Measurement, error) {
	m, err := scanMeasurement(s.QueryRow(`SELECT `+measurementColumns+` FROM measurements WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get measurement: %w", err)
	}
	return m, nil
}

// MeasurementFilter narrows a measurement listing. Zero values mean "any".
type MeasurementFilter struct {
	ContainerID int64
	SessionID   int64
	TargetType  string
}

// ListMeasurements returns one page of measurements, newest first.
func (s *Store) ListMeasurements(f MeasurementFilter, page, limit int) ([]Measurement, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where := "WHERE 1=1"
	args := []any{}
	if f.ContainerID != 0 {
		where += " AND container_id = ?"
		args = append(args, f.ContainerID)
	}
	if f.SessionID != 0 {
		where += " AND session_id = ?"
		args = append(args, f.SessionID)
	}
	if f.TargetType != "" {
		where += " AND target_type = ?"
		args = append(args, f.TargetType)
	}

	var total int
	if err := s.QueryRow(`SELECT COUNT(*) FROM measurements `+where, args...).Scan(&total); err != nil {
		return nil, Page{}, fmt.Errorf("failed to count measurements: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.Query(`SELECT `+measurementColumns+` FROM measurements `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Page{}, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	items := []Measurement{}
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, Page{}, fmt.Errorf("failed to scan measurement: %w", err)
		}
		items = append(items, *m)
	}
	return items, makePage(total, page, limit), rows.Err()
}

// DeleteMeasurement removes a measurement. Returns false when it did not
// exist.
func (s *Store) DeleteMeasurement(id int64) (bool, error) {
	res, err := s.Exec(`DELETE FROM measurements WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete measurement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
