package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eyeson-app/eyeson/internal/model"
)

// ErrNotPending is returned by UpdateStatus when the report has already left
// the pending state (or does not exist). A report is reviewed exactly once.
var ErrNotPending = errors.New("report is not pending")

type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Create inserts a new pending report and returns it. The id is
// client-generated; an empty id gets a fresh UUID.
func (s *ReportStore) Create(authorID string, category model.Category, description string, lat, lon float64, imagePath string) (*model.Report, error) {
	r := &model.Report{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Category:    category,
		Description: description,
		Latitude:    lat,
		Longitude:   lon,
		CreatedAt:   time.Now().UTC(),
		Status:      model.StatusPending,
		ImagePath:   imagePath,
	}

	_, err := s.db.Exec(
		`INSERT INTO reports (id, author_id, category, description, latitude, longitude, created_at, status, image_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AuthorID, string(r.Category), r.Description, r.Latitude, r.Longitude, r.CreatedAt, string(r.Status), r.ImagePath,
	)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return r, nil
}

// GetByID returns a report, or nil if it does not exist.
func (s *ReportStore) GetByID(id string) (*model.Report, error) {
	row := s.db.QueryRow(
		`SELECT id, author_id, category, description, latitude, longitude, created_at, status, moderator_id, image_path
		 FROM reports WHERE id = ?`, id,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

// ListByStatus returns all reports in the given lifecycle state, newest first.
func (s *ReportStore) ListByStatus(status model.ReportStatus) ([]model.Report, error) {
	rows, err := s.db.Query(
		`SELECT id, author_id, category, description, latitude, longitude, created_at, status, moderator_id, image_path
		 FROM reports WHERE status = ? ORDER BY created_at DESC`, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list reports by status: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// ListByCategory returns approved reports in the given category, newest first.
func (s *ReportStore) ListByCategory(category model.Category) ([]model.Report, error) {
	rows, err := s.db.Query(
		`SELECT id, author_id, category, description, latitude, longitude, created_at, status, moderator_id, image_path
		 FROM reports WHERE category = ? AND status = ? ORDER BY created_at DESC`,
		string(category), string(model.StatusApproved),
	)
	if err != nil {
		return nil, fmt.Errorf("list reports by category: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// ListByAuthor returns all reports submitted by the given user, newest first.
func (s *ReportStore) ListByAuthor(authorID string) ([]model.Report, error) {
	rows, err := s.db.Query(
		`SELECT id, author_id, category, description, latitude, longitude, created_at, status, moderator_id, image_path
		 FROM reports WHERE author_id = ? ORDER BY created_at DESC`, authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports by author: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// UpdateStatus moves a pending report to a terminal state and stamps the
// moderator. Returns ErrNotPending if the report was already reviewed or does
// not exist.
func (s *ReportStore) UpdateStatus(id string, status model.ReportStatus, moderatorID string) error {
	result, err := s.db.Exec(
		`UPDATE reports SET status = ?, moderator_id = ? WHERE id = ? AND status = ?`,
		string(status), moderatorID, id, string(model.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

func scanReport(row *sql.Row) (*model.Report, error) {
	var r model.Report
	var category, status string
	var moderatorID, imagePath sql.NullString
	err := row.Scan(&r.ID, &r.AuthorID, &category, &r.Description, &r.Latitude, &r.Longitude, &r.CreatedAt, &status, &moderatorID, &imagePath)
	if err != nil {
		return nil, err
	}
	r.Category = model.Category(category)
	r.Status = model.ReportStatus(status)
	r.ModeratorID = moderatorID.String
	r.ImagePath = imagePath.String
	return &r, nil
}

func scanReports(rows *sql.Rows) ([]model.Report, error) {
	var reports []model.Report
	for rows.Next() {
		var r model.Report
		var category, status string
		var moderatorID, imagePath sql.NullString
		if err := rows.Scan(&r.ID, &r.AuthorID, &category, &r.Description, &r.Latitude, &r.Longitude, &r.CreatedAt, &status, &moderatorID, &imagePath); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Category = model.Category(category)
		r.Status = model.ReportStatus(status)
		r.ModeratorID = moderatorID.String
		r.ImagePath = imagePath.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
