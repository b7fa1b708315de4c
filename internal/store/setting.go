package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Setting is one row in system_settings.
type Setting struct {
	Key         string  `json:"setting_key"`
	Value       *string `json:"setting_value"`
	Type        string  `json:"setting_type"`
	Description *string `json:"description,omitempty"`
	UpdatedBy   *string `json:"updated_by,omitempty"`
}

// GetSetting returns the setting or nil when the key does not exist.
func (s *Store) GetSetting(key string) (*Setting, error) {
	st := &Setting{}
	err := s.QueryRow(`
		SELECT setting_key, setting_value, setting_type, description, updated_by
		FROM system_settings WHERE setting_key = ?`, key,
	).Scan(&st.Key, &st.Value, &st.Type, &st.Description, &st.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return st, nil
}

// SetSetting upserts a setting by key.
func (s *Store) SetSetting(st *Setting) error {
	if st.Type == "" {
		st.Type = "string"
	}
	_, err := s.Exec(`
		INSERT INTO system_settings (setting_key, setting_value, setting_type, description, updated_by)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET
			setting_value = excluded.setting_value,
			setting_type = excluded.setting_type,
			description = COALESCE(excluded.description, description),
			updated_by = excluded.updated_by,
			updated_at = CURRENT_TIMESTAMP`,
		st.Key, st.Value, st.Type, st.Description, st.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// ListSettings returns all settings ordered by key.
func (s *Store) ListSettings() ([]Setting, error) {
	rows, err := s.Query(`
		SELECT setting_key, setting_value, setting_type, description, updated_by
		FROM system_settings ORDER BY setting_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	items := []Setting{}
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Type, &st.Description, &st.UpdatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		items = append(items, st)
	}
	return items, rows.Err()
}
