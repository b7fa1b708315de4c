package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session is one measurement session on a container.
type Session struct {
	ID          int64      `json:"id"`
	ContainerID int64      `json:"container_id"`
	SessionName string     `json:"session_name"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Status      string     `json:"status"`
	Operator    *string    `json:"operator,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// CreateSession starts a new in-progress session. An empty name gets a
// timestamp-derived one.
func (s *Store) CreateSession(sess *Session) error {
	if sess.SessionName == "" {
		sess.SessionName = "Session-" + time.Now().Format("20060102-150405")
	}
	sess.Status = "in_progress"

	res, err := s.Exec(`
		INSERT INTO measurement_sessions (container_id, session_name, status, operator, notes)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ContainerID, sess.SessionName, sess.Status, sess.Operator, sess.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	sess.ID = id
	return nil
}

// GetSession returns the session or nil when it does not exist.
func (s *Store) GetSession(id int64) (*Session, error) {
	sess := &Session{}
	err := s.QueryRow(`
		SELECT id, container_id, session_name, started_at, completed_at, status, operator, notes
		FROM measurement_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.ContainerID, &sess.SessionName, &sess.StartedAt, &sess.CompletedAt, &sess.Status, &sess.Operator, &sess.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// CompleteSession marks the session completed. Returns false when the
// session does not exist.
func (s *Store) CompleteSession(id int64) (bool, error) {
	res, err := s.Exec(`
		UPDATE measurement_sessions
		SET status = 'completed', completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
