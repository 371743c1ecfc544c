package moderate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/eyeson-app/eyeson/internal/model"
	"github.com/eyeson-app/eyeson/internal/notify"
)

// fakeReportStore implements ReportStore with optional blocking on
// UpdateStatus so tests can hold a transition in flight.
type fakeReportStore struct {
	mu        sync.Mutex
	reports   map[string]*model.Report
	updateErr error
	updates   int
	blockOn   chan struct{} // when set, UpdateStatus waits for a receive
	entered   chan struct{} // signalled once per UpdateStatus call
}

func newFakeReportStore(reports ...*model.Report) *fakeReportStore {
	s := &fakeReportStore{reports: make(map[string]*model.Report)}
	for _, r := range reports {
		s.reports[r.ID] = r
	}
	return s
}

func (s *fakeReportStore) GetByID(id string) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeReportStore) UpdateStatus(id string, status model.ReportStatus, moderatorID string) error {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.blockOn != nil {
		<-s.blockOn
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	r, ok := s.reports[id]
	if !ok || r.Status != model.StatusPending {
		return errors.New("report is not pending")
	}
	r.Status = status
	r.ModeratorID = moderatorID
	s.updates++
	return nil
}

type fakeUserSource struct {
	users []model.NearbyUser
	err   error
}

func (f *fakeUserSource) FreshlyLocated(cutoff time.Time) ([]model.NearbyUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []model.NearbyUser
	alerts     []notify.Notification
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, user model.NearbyUser, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, user)
	f.alerts = append(f.alerts, n)
	return nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dispatched)
}

func moderator() *model.User {
	return &model.User{ID: "mod-1", IsModerator: true}
}

func pendingReport() *model.Report {
	return &model.Report{
		ID:       "r1",
		AuthorID: "author-1",
		Category: model.CategoryTheft,
		Latitude: 32.0, Longitude: 34.0,
		Status: model.StatusPending,
	}
}

func TestApproveTransitionsAndStampsModerator(t *testing.T) {
	store := newFakeReportStore(pendingReport())
	w := NewWorkflow(store, &fakeUserSource{}, &fakeDispatcher{}, slog.Default())

	if err := w.Approve(context.Background(), "r1", moderator()); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	r, _ := store.GetByID("r1")
	if r.Status != model.StatusApproved {
		t.Errorf("status = %q, want approved", r.Status)
	}
	if r.ModeratorID != "mod-1" {
		t.Errorf("moderator = %q, want mod-1", r.ModeratorID)
	}
}

func TestRejectDoesNotFanOut(t *testing.T) {
	store := newFakeReportStore(pendingReport())
	users := &fakeUserSource{users: []model.NearbyUser{
		{UserID: "u1", Latitude: 32.0, Longitude: 34.0},
	}}
	dispatcher := &fakeDispatcher{}
	w := NewWorkflow(store, users, dispatcher, slog.Default())

	if err := w.Reject(context.Background(), "r1", moderator()); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	r, _ := store.GetByID("r1")
	if r.Status != model.StatusRejected {
		t.Errorf("status = %q, want rejected", r.Status)
	}
	if got := dispatcher.count(); got != 0 {
		t.Errorf("dispatched %d alerts on reject, want 0", got)
	}
}

func TestNonModeratorRejected(t *testing.T) {
	store := newFakeReportStore(pendingReport())
	w := NewWorkflow(store, &fakeUserSource{}, &fakeDispatcher{}, slog.Default())

	regular := &model.User{ID: "u1", IsModerator: false}
	if err := w.Approve(context.Background(), "r1", regular); !errors.Is(err, ErrNotModerator) {
		t.Errorf("Approve by non-moderator: err = %v, want ErrNotModerator", err)
	}
	if err := w.Approve(context.Background(), "r1", nil); !errors.Is(err, ErrNotModerator) {
		t.Errorf("Approve with nil user: err = %v, want ErrNotModerator", err)
	}

	r, _ := store.GetByID("r1")
	if r.Status != model.StatusPending {
		t.Errorf("status = %q, want still pending", r.Status)
	}
}

func TestApproveFansOutToNearbyFreshUsers(t *testing.T) {
	store := newFakeReportStore(pendingReport())
	users := &fakeUserSource{users: []model.NearbyUser{
		{UserID: "near", Latitude: 32.001, Longitude: 34.0},      // ~111m
		{UserID: "far", Latitude: 32.1, Longitude: 34.0},         // ~11km
		{UserID: "author-1", Latitude: 32.0, Longitude: 34.0},    // the author
		{UserID: "edge", Latitude: 32.04, Longitude: 34.0},       // ~4.4km
	}}
	dispatcher := &fakeDispatcher{}
	w := NewWorkflow(store, users, dispatcher, slog.Default())

	if err := w.Approve(context.Background(), "r1", moderator()); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if got := dispatcher.count(); got != 2 {
		t.Fatalf("dispatched %d alerts, want 2", got)
	}
	gotUsers := map[string]bool{}
	for _, u := range dispatcher.dispatched {
		gotUsers[u.UserID] = true
	}
	if !gotUsers["near"] || !gotUsers["edge"] {
		t.Errorf("dispatched to %v, want near and edge", gotUsers)
	}
	if gotUsers["author-1"] {
		t.Error("author must never receive the approval alert")
	}
	if gotUsers["far"] {
		t.Error("user outside 5km must not receive the alert")
	}

	alert := dispatcher.alerts[0]
	if alert.ID != "report_approved_r1" {
		t.Errorf("alert ID = %q", alert.ID)
	}
	if alert.Title != "Safety Alert" {
		t.Errorf("alert title = %q", alert.Title)
	}
	if alert.Body != "A new safety report has been confirmed in your area. Stay alert!" {
		t.Errorf("alert body = %q", alert.Body)
	}
}

func TestConcurrentApprovesSingleFlight(t *testing.T) {
	store := newFakeReportStore(pendingReport())
	store.blockOn = make(chan struct{})
	store.entered = make(chan struct{}, 2)
	dispatcher := &fakeDispatcher{}
	users := &fakeUserSource{users: []model.NearbyUser{
		{UserID: "u1", Latitude: 32.0, Longitude: 34.0},
	}}
	w := NewWorkflow(store, users, dispatcher, slog.Default())

	errs := make(chan error, 2)
	go func() {
		errs <- w.Approve(context.Background(), "r1", moderator())
	}()

	// Wait until the first approve holds the in-flight guard inside the store.
	<-store.entered
	if !w.Processing("r1") {
		t.Fatal("expected r1 in flight")
	}

	go func() {
		errs <- w.Approve(context.Background(), "r1", moderator())
	}()

	// The second call must return nil without touching the store. Drain it
	// first, then release the blocked update.
	if err := <-errs; err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	close(store.blockOn)
	if err := <-errs; err != nil {
		t.Fatalf("first Approve: %v", err)
	}

	if store.updates != 1 {
		t.Errorf("status updated %d times, want 1", store.updates)
	}
	if got := dispatcher.count(); got != 1 {
		t.Errorf("fanned out %d times, want 1", got)
	}
	if w.Processing("r1") {
		t.Error("expected guard released after completion")
	}
}

func TestFailedUpdateReleasesGuard(t *testing.T) {
	store := newFakeReportStore(pendingReport())
	store.updateErr = errors.New("database locked")
	dispatcher := &fakeDispatcher{}
	w := NewWorkflow(store, &fakeUserSource{}, dispatcher, slog.Default())

	if err := w.Approve(context.Background(), "r1", moderator()); err == nil {
		t.Fatal("expected error from failed update")
	}
	if got := dispatcher.count(); got != 0 {
		t.Errorf("dispatched %d alerts after failed update, want 0", got)
	}
	if w.Processing("r1") {
		t.Error("expected guard released after failure")
	}

	// The transition is retryable once the store recovers.
	store.updateErr = nil
	if err := w.Approve(context.Background(), "r1", moderator()); err != nil {
		t.Fatalf("retry Approve: %v", err)
	}
	r, _ := store.GetByID("r1")
	if r.Status != model.StatusApproved {
		t.Errorf("status after retry = %q, want approved", r.Status)
	}
}

func TestApproveNonPendingFails(t *testing.T) {
	r := pendingReport()
	r.Status = model.StatusApproved
	store := newFakeReportStore(r)
	dispatcher := &fakeDispatcher{}
	w := NewWorkflow(store, &fakeUserSource{}, dispatcher, slog.Default())

	if err := w.Approve(context.Background(), "r1", moderator()); err == nil {
		t.Fatal("expected error approving a non-pending report")
	}
	if got := dispatcher.count(); got != 0 {
		t.Errorf("dispatched %d alerts, want 0", got)
	}
}

func TestFanOutUsesLocationFreshnessCutoff(t *testing.T) {
	store := newFakeReportStore(pendingReport())
	var gotCutoff time.Time
	users := &cutoffRecordingSource{onCall: func(cutoff time.Time) { gotCutoff = cutoff }}
	w := NewWorkflow(store, users, &fakeDispatcher{}, slog.Default())

	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if err := w.Approve(context.Background(), "r1", moderator()); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	want := fixed.Add(-model.LocationFreshness)
	if !gotCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", gotCutoff, want)
	}
}

type cutoffRecordingSource struct {
	onCall func(time.Time)
}

func (c *cutoffRecordingSource) FreshlyLocated(cutoff time.Time) ([]model.NearbyUser, error) {
	c.onCall(cutoff)
	return nil, nil
}
