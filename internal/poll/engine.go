package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eyeson-app/eyeson/internal/geo"
	"github.com/eyeson-app/eyeson/internal/model"
	"github.com/eyeson-app/eyeson/internal/notify"
	"github.com/eyeson-app/eyeson/internal/prefs"
	"github.com/eyeson-app/eyeson/internal/seen"
)

// pollInterval is the fixed time between polling cycles.
const pollInterval = 30 * time.Second

// ReportSource fetches candidate reports. The backend boundary has no delta
// query; every cycle fetches the full approved set and relies on client-side
// filtering plus the seen tracker for idempotence.
type ReportSource interface {
	ListByStatus(status model.ReportStatus) ([]model.Report, error)
}

// LocationSource reports the device's current location, if one is known.
type LocationSource interface {
	Current() (geo.Point, bool)
}

// Engine periodically re-derives "what's new and relevant to me" from the
// report store and emits local notifications. Cycles run on a fixed ticker
// while the engine is running, immediately on Start, and opportunistically on
// foreground transitions and background wake-ups; all entry points funnel into
// one serialized poll routine.
type Engine struct {
	reports     ReportSource
	tracker     *seen.Tracker
	preferences *prefs.Preferences
	sink        notify.Sink
	location    LocationSource
	background  BackgroundScheduler
	localUserID string
	logger      *slog.Logger

	pollMu   sync.Mutex // serializes poll cycles
	interval time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	running  bool
	lastPoll time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewEngine creates a polling engine for the given local user. If background
// is nil an in-process timer scheduler is used.
func NewEngine(reports ReportSource, tracker *seen.Tracker, preferences *prefs.Preferences, sink notify.Sink, location LocationSource, background BackgroundScheduler, localUserID string, logger *slog.Logger) *Engine {
	e := &Engine{
		reports:     reports,
		tracker:     tracker,
		preferences: preferences,
		sink:        sink,
		location:    location,
		background:  background,
		localUserID: localUserID,
		logger:      logger,
		interval:    pollInterval,
		now:         time.Now,
	}
	if e.background == nil {
		e.background = NewTimerScheduler(func() {
			e.BackgroundWake(context.Background())
		})
	}
	return e
}

// Start begins polling: an immediate cycle, a recurring ticker, and a
// background wake-up registration. Starting a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	e.mu.Unlock()

	e.background.ScheduleNext(e.interval)

	go func() {
		defer close(e.done)

		e.Poll(ctx)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Poll(ctx)
			}
		}
	}()

	e.logger.Info("polling started", "interval", e.interval)
}

// Stop cancels the ticker and any pending background wake-up. An in-flight
// cycle runs to completion but re-checks the running flag before emitting
// notifications or touching the seen tracker.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	e.background.Cancel()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	e.logger.Info("polling stopped")
}

// Running reports whether the engine is polling.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// LastPolled returns the time of the last successful cycle, if any.
func (e *Engine) LastPolled() (time.Time, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastPoll, !e.lastPoll.IsZero()
}

// BackgroundWake handles an OS-level background refresh: such wake-ups are
// one-shot, so the next one is scheduled before the cycle runs.
func (e *Engine) BackgroundWake(ctx context.Context) {
	if !e.Running() {
		return
	}
	e.background.ScheduleNext(e.interval)
	e.Poll(ctx)
}

// Poll executes one polling cycle. Concurrent callers serialize; a cycle is
// silently skipped while the engine is stopped or no device location is known.
func (e *Engine) Poll(ctx context.Context) {
	e.pollMu.Lock()
	defer e.pollMu.Unlock()

	if !e.Running() {
		return
	}

	here, ok := e.location.Current()
	if !ok {
		e.logger.Debug("skipping poll, no device location")
		return
	}

	reports, err := e.reports.ListByStatus(model.StatusApproved)
	if err != nil {
		e.logger.Warn("fetch approved reports", "error", err)
		return
	}

	radius := e.preferences.Radius()
	var nearby []model.Report
	for _, r := range reports {
		if geo.Within(radius, here, geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}) {
			nearby = append(nearby, r)
		}
	}

	var fresh []model.Report
	for _, r := range nearby {
		if !e.tracker.Contains(r.ID) {
			fresh = append(fresh, r)
		}
	}

	var relevant []model.Report
	for i := range fresh {
		if e.preferences.Wants(&fresh[i], e.localUserID) {
			relevant = append(relevant, fresh[i])
		}
	}

	// The engine may have been stopped while fetching; bail before side effects.
	if !e.Running() {
		return
	}

	for i := range relevant {
		if err := e.sink.Schedule(ctx, notificationFor(&relevant[i], here)); err != nil {
			e.logger.Warn("schedule notification", "report_id", relevant[i].ID, "error", err)
		}
	}

	// Every nearby report is marked seen, notified or not. A report filtered
	// out by preferences stays invisible even if preferences widen later.
	ids := make([]string, len(nearby))
	for i := range nearby {
		ids[i] = nearby[i].ID
	}
	e.tracker.MarkSeen(ids)

	e.mu.Lock()
	e.lastPoll = e.now()
	e.mu.Unlock()

	e.logger.Info("polling completed", "nearby", len(nearby), "new", len(fresh), "notified", len(relevant))
}

// notificationFor builds the local alert for a report at the given distance
// from the device.
func notificationFor(r *model.Report, here geo.Point) notify.Notification {
	dist := geo.Distance(here, geo.Point{Latitude: r.Latitude, Longitude: r.Longitude})
	return notify.Notification{
		ID:    "report_" + r.ID,
		Title: "New Safety Report Nearby",
		Body:  fmt.Sprintf("%s reported %s away: %s...", r.Category.DisplayName(), formatDistance(dist), truncate(r.Description, 50)),
		Metadata: map[string]string{
			"report_id": r.ID,
			"category":  string(r.Category),
			"latitude":  fmt.Sprintf("%f", r.Latitude),
			"longitude": fmt.Sprintf("%f", r.Longitude),
		},
	}
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(meters))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// truncate shortens s to n characters, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
