// Package store persists containers, measurement sessions, and measurement
// results in sqlite. The geometry core never touches this package; callers
// hand it completed AngleResults plus operator metadata.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the sqlite handle with the measurement schema.
type Store struct {
	*sql.DB
}

// NewStore opens (or creates) the database at path and ensures the schema.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS containers (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			container_number  TEXT NOT NULL,
			processed_date    TEXT NOT NULL,
			description       TEXT,
			location          TEXT,
			status            TEXT NOT NULL DEFAULT 'active',
			created_by        TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (status IN ('active', 'inactive', 'archived')),
			UNIQUE (container_number, processed_date)
		);
		CREATE TABLE IF NOT EXISTS measurement_sessions (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			container_id      INTEGER NOT NULL REFERENCES containers(id) ON DELETE CASCADE,
			session_name      TEXT,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at      TIMESTAMP,
			status            TEXT NOT NULL DEFAULT 'in_progress',
			operator          TEXT,
			notes             TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (status IN ('in_progress', 'completed', 'cancelled'))
		);
		CREATE TABLE IF NOT EXISTS measurements (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			container_id      INTEGER NOT NULL REFERENCES containers(id) ON DELETE CASCADE,
			session_id        INTEGER REFERENCES measurement_sessions(id) ON DELETE SET NULL,
			target_type       TEXT NOT NULL,
			pitch_deg         DOUBLE NOT NULL,
			roll_deg          DOUBLE NOT NULL,
			basis             TEXT NOT NULL,
			roi_json          TEXT NOT NULL DEFAULT '{}',
			roi_center_x      DOUBLE,
			roi_center_y      DOUBLE,
			roi_center_z      DOUBLE,
			roi_width         DOUBLE,
			roi_height        DOUBLE,
			roi_depth         DOUBLE,
			distance_m        DOUBLE,
			point_count       INTEGER,
			inlier_ratio      DOUBLE,
			residual_rms      DOUBLE,
			quality_score     DOUBLE,
			imu_json          TEXT NOT NULL DEFAULT '{}',
			measurement_note  TEXT,
			operator          TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (target_type IN ('A', 'B', 'C', 'D')),
			CHECK (pitch_deg >= -180.0 AND pitch_deg <= 180.0),
			CHECK (roll_deg >= -180.0 AND roll_deg <= 180.0),
			CHECK (basis IN ('imu', 'plane', 'imu_fallback', 'default')),
			CHECK (distance_m IS NULL OR (distance_m > 0 AND distance_m <= 10.0))
		);
		CREATE TABLE IF NOT EXISTS system_settings (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			setting_key       TEXT NOT NULL UNIQUE,
			setting_value     TEXT,
			setting_type      TEXT NOT NULL DEFAULT 'string',
			description       TEXT,
			updated_by        TEXT,
			updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (setting_type IN ('string', 'number', 'boolean', 'json'))
		);
		CREATE INDEX IF NOT EXISTS idx_measurements_container ON measurements(container_id);
		CREATE INDEX IF NOT EXISTS idx_measurements_session ON measurements(session_id);
	`)
	if err != nil {
		return nil, err
	}

	return &Store{db}, nil
}

// Ping reports whether the database answers a trivial query.
func (s *Store) Ping() bool {
	var one int
	return s.QueryRow(`SELECT 1`).Scan(&one) == nil
}

// Page describes one page of a listing.
type Page struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

func makePage(total, page, limit int) Page {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Total: total, Page: page, Limit: limit, Pages: pages}
}
