package moderate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eyeson-app/eyeson/internal/geo"
	"github.com/eyeson-app/eyeson/internal/model"
	"github.com/eyeson-app/eyeson/internal/notify"
)

// fanOutRadiusMeters is the fixed radius for approval fan-out.
const fanOutRadiusMeters = 5000.0

// ErrNotModerator is returned when the caller lacks moderator rights.
var ErrNotModerator = errors.New("only moderators can review reports")

// ReportStore is the slice of the report boundary the workflow uses.
type ReportStore interface {
	GetByID(id string) (*model.Report, error)
	UpdateStatus(id string, status model.ReportStatus, moderatorID string) error
}

// UserSource lists fan-out candidates with fresh locations and tokens.
type UserSource interface {
	FreshlyLocated(cutoff time.Time) ([]model.NearbyUser, error)
}

// Workflow moves reports from pending to approved or rejected. Each transition
// stamps the moderator; an approval additionally fans a push alert out to
// every fresh-located user within fanOutRadiusMeters of the report, excluding
// its author. A per-report in-flight guard makes a second concurrent attempt
// on the same report a silent no-op.
type Workflow struct {
	reports    ReportStore
	users      UserSource
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewWorkflow(reports ReportStore, users UserSource, dispatcher notify.Dispatcher, logger *slog.Logger) *Workflow {
	return &Workflow{
		reports:    reports,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		inFlight:   make(map[string]bool),
	}
}

// Approve moves a pending report to approved and triggers fan-out.
func (w *Workflow) Approve(ctx context.Context, reportID string, moderator *model.User) error {
	return w.transition(ctx, reportID, model.StatusApproved, moderator)
}

// Reject moves a pending report to rejected. No notification side effect.
func (w *Workflow) Reject(ctx context.Context, reportID string, moderator *model.User) error {
	return w.transition(ctx, reportID, model.StatusRejected, moderator)
}

// Processing reports whether a transition for the report is in flight.
func (w *Workflow) Processing(reportID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight[reportID]
}

func (w *Workflow) transition(ctx context.Context, reportID string, status model.ReportStatus, moderator *model.User) error {
	if moderator == nil || !moderator.IsModerator {
		return ErrNotModerator
	}

	w.mu.Lock()
	if w.inFlight[reportID] {
		w.mu.Unlock()
		w.logger.Info("report already being processed", "report_id", reportID)
		return nil
	}
	w.inFlight[reportID] = true
	w.mu.Unlock()

	// Release the guard whatever happens so a failed update can be retried.
	defer func() {
		w.mu.Lock()
		delete(w.inFlight, reportID)
		w.mu.Unlock()
	}()

	if err := w.reports.UpdateStatus(reportID, status, moderator.ID); err != nil {
		return fmt.Errorf("update report %s: %w", reportID, err)
	}

	w.logger.Info("report reviewed", "report_id", reportID, "status", string(status), "moderator_id", moderator.ID)

	if status == model.StatusApproved {
		w.fanOut(ctx, reportID)
	}
	return nil
}

// fanOut alerts every eligible user near an approved report. There is no
// dedup here: each approval fans out exactly once, unconditionally. Failures
// are logged; the transition itself has already succeeded.
func (w *Workflow) fanOut(ctx context.Context, reportID string) {
	report, err := w.reports.GetByID(reportID)
	if err != nil {
		w.logger.Warn("fan-out fetch report", "report_id", reportID, "error", err)
		return
	}
	if report == nil {
		w.logger.Warn("fan-out report missing", "report_id", reportID)
		return
	}

	users, err := w.users.FreshlyLocated(w.now().Add(-model.LocationFreshness))
	if err != nil {
		w.logger.Warn("fan-out list users", "report_id", reportID, "error", err)
		return
	}

	center := geo.Point{Latitude: report.Latitude, Longitude: report.Longitude}
	alert := notify.Notification{
		ID:    "report_approved_" + report.ID,
		Title: "Safety Alert",
		Body:  "A new safety report has been confirmed in your area. Stay alert!",
		Metadata: map[string]string{
			"report_id": report.ID,
			"category":  string(report.Category),
		},
	}

	sent := 0
	for _, u := range users {
		if u.UserID == report.AuthorID {
			continue
		}
		if !geo.Within(fanOutRadiusMeters, center, geo.Point{Latitude: u.Latitude, Longitude: u.Longitude}) {
			continue
		}
		if err := w.dispatcher.Dispatch(ctx, u, alert); err != nil {
			w.logger.Warn("fan-out dispatch", "report_id", reportID, "user_id", u.UserID, "error", err)
			continue
		}
		sent++
	}

	w.logger.Info("fan-out completed", "report_id", reportID, "candidates", len(users), "sent", sent)
}
