package model

import "time"

// ReportStatus is the moderation lifecycle state of a report.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusApproved ReportStatus = "approved"
	StatusRejected ReportStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// DisplayName returns the status label shown to users.
func (s ReportStatus) DisplayName() string {
	switch s {
	case StatusPending:
		return "Pending Review"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// Report is a geo-tagged safety report. Reports are created pending and moved
// exactly once by a moderator into approved or rejected; ModeratorID is empty
// while the report is pending and set as part of the terminal transition.
type Report struct {
	ID          string       `json:"id"`
	AuthorID    string       `json:"author_id"`
	Category    Category     `json:"category"`
	Description string       `json:"description"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	CreatedAt   time.Time    `json:"created_at"`
	Status      ReportStatus `json:"status"`
	ModeratorID string       `json:"moderator_id,omitempty"`
	ImagePath   string       `json:"image_path,omitempty"`
}

// Severity returns the severity derived from the report's category.
func (r *Report) Severity() Severity {
	return r.Category.Severity()
}
