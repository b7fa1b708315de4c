package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
)

// Container is one physical vessel whose valves get measured. The pair
// (container_number, processed_date) is the natural key.
type Container struct {
	ID              int64     `json:"id"`
	ContainerNumber string    `json:"container_number"`
	ProcessedDate   string    `json:"processed_date"` // YYYY-MM-DD
	Description     *string   `json:"description"`
	Location        *string   `json:"location"`
	Status          string    `json:"status"`
	CreatedBy       *string   `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t.Format("2006-01-02"), nil
}

// CreateContainer inserts a new container with status active.
func (s *Store) CreateContainer(c *Container) error {
	if c.Status == "" {
		c.Status = "active"
	}
	res, err := s.Exec(`
		INSERT INTO containers (container_number, processed_date, description, location, status, created_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ContainerNumber, c.ProcessedDate, c.Description, c.Location, c.Status, c.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	c.ID = id
	return nil
}

// GetContainer returns the container or nil when it does not exist.
func (s *Store) GetContainer(id int64) (*Container, error) {
	c := &Container{}
	err := s.QueryRow(`
		SELECT id, container_number, processed_date, description, location, status, created_by, created_at
		FROM containers WHERE id = ?`, id,
	).Scan(&c.ID, &c.ContainerNumber, &c.ProcessedDate, &c.Description, &c.Location, &c.Status, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get container: %w", err)
	}
	return c, nil
}

// GetOrCreateContainer looks a container up by its natural key and creates
// it when missing.
func (s *Store) GetOrCreateContainer(number, processedDate string, operator *string) (*Container, error) {
	c := &Container{}
	err := s.QueryRow(`
		SELECT id, container_number, processed_date, description, location, status, created_by, created_at
		FROM containers WHERE container_number = ? AND processed_date = ?`,
		number, processedDate,
	).Scan(&c.ID, &c.ContainerNumber, &c.ProcessedDate, &c.Description, &c.Location, &c.Status, &c.CreatedBy, &c.CreatedAt)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up container: %w", err)
	}

	c = &Container{
		ContainerNumber: number,
		ProcessedDate:   processedDate,
		CreatedBy:       operator,
	}
	if err := s.CreateContainer(c); err != nil {
		return nil, err
	}
	log.Printf("[Store] created container id=%d number=%s", c.ID, number)
	return c, nil
}

// ListContainers returns one page of containers, newest first, optionally
// filtered by status.
func (s *Store) ListContainers(status string, page, limit int) ([]Container, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE status = ?"
		args = append(args, status)
	}

	var total int
	if err := s.QueryRow(`SELECT COUNT(*) FROM containers `+where, args...).Scan(&total); err != nil {
		return nil, Page{}, fmt.Errorf("failed to count containers: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.Query(`
		SELECT id, container_number, processed_date, description, location, status, created_by, created_at
		FROM containers `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Page{}, fmt.Errorf("failed to list containers: %w", err)
	}
	defer rows.Close()

	items := []Container{}
	for rows.Next() {
		var c Container
		if err := rows.Scan(&c.ID, &c.ContainerNumber, &c.ProcessedDate, &c.Description, &c.Location, &c.Status, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, Page{}, fmt.Errorf("failed to scan container: %w", err)
		}
		items = append(items, c)
	}
	return items, makePage(total, page, limit), rows.Err()
}
