package store

import (
	"database/sql"
	"fmt"
)

// SeenStore persists the ordered list of report ids the device has already
// surfaced. Row position preserves insertion order across restarts.
type SeenStore struct {
	db *sql.DB
}

func NewSeenStore(db *sql.DB) *SeenStore {
	return &SeenStore{db: db}
}

// Load returns all persisted report ids in insertion order.
func (s *SeenStore) Load() ([]string, error) {
	rows, err := s.db.Query(`SELECT report_id FROM seen_reports ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load seen reports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen report: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Save replaces the persisted list with ids, preserving slice order.
func (s *SeenStore) Save(ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save seen reports: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM seen_reports`); err != nil {
		return fmt.Errorf("save seen reports: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(`INSERT INTO seen_reports (report_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("save seen report %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save seen reports: %w", err)
	}
	return nil
}

// Clear removes all persisted ids.
func (s *SeenStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM seen_reports`); err != nil {
		return fmt.Errorf("clear seen reports: %w", err)
	}
	return nil
}
