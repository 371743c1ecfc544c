package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/eyeson-app/eyeson/internal/handler"
	"github.com/eyeson-app/eyeson/internal/location"
	"github.com/eyeson-app/eyeson/internal/middleware"
	"github.com/eyeson-app/eyeson/internal/moderate"
	"github.com/eyeson-app/eyeson/internal/notify"
	"github.com/eyeson-app/eyeson/internal/poll"
	"github.com/eyeson-app/eyeson/internal/prefs"
	"github.com/eyeson-app/eyeson/internal/seen"
	"github.com/eyeson-app/eyeson/internal/store"
	ws "github.com/eyeson-app/eyeson/internal/websocket"
)

// Config carries the server's external configuration.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// LocalUserID is the auth-session user this device polls on behalf of.
	LocalUserID string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	reportH     *handler.ReportHandler
	moderationH *handler.ModerationHandler
	prefsH      *handler.PreferencesHandler
	deviceH     *handler.DeviceHandler
	userStore   *store.UserStore
	rateLimiter *middleware.RateLimiter
	engine      *poll.Engine
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	reportStore := store.NewReportStore(db)
	userStore := store.NewUserStore(db)
	settingsStore := store.NewSettingsStore(db)
	seenStore := store.NewSeenStore(db)
	pushStore := store.NewPushStore(db)

	tracker := seen.NewTracker(seenStore, logger.With("component", "seen"))
	preferences := prefs.Load(settingsStore, logger.With("component", "prefs"))
	locations := location.NewManager()

	pushSvc := notify.NewWebPushService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	dispatcher := notify.NewWebPushDispatcher(pushSvc, pushStore, logger.With("component", "push"))
	sink := ws.NewSink(hub)

	engine := poll.NewEngine(reportStore, tracker, preferences, sink, locations, nil, cfg.LocalUserID, logger.With("component", "poll"))
	workflow := moderate.NewWorkflow(reportStore, userStore, dispatcher, logger.With("component", "moderate"))

	return &Server{
		db:          db,
		hub:         hub,
		reportH:     handler.NewReportHandler(reportStore, hub, logger.With("component", "report")),
		moderationH: handler.NewModerationHandler(workflow, reportStore, hub, logger.With("component", "moderation")),
		prefsH:      handler.NewPreferencesHandler(preferences, tracker, engine, hub),
		deviceH:     handler.NewDeviceHandler(locations, userStore, pushStore, pushSvc, logger.With("component", "device")),
		userStore:   userStore,
		rateLimiter: middleware.NewRateLimiter(),
		engine:      engine,
		logger:      logger,
	}
}

// Engine returns the polling engine for lifecycle control.
func (s *Server) Engine() *poll.Engine {
	return s.engine
}

// StartPolling starts the engine off the server's base context.
func (s *Server) StartPolling(ctx context.Context) {
	s.engine.Start(ctx)
}

// StopPolling stops the engine and waits for any in-flight cycle.
func (s *Server) StopPolling() {
	s.engine.Stop()
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Reports
	mux.HandleFunc("POST /api/reports", s.rateLimitedHandler(s.reportH.Create))
	mux.HandleFunc("GET /api/reports", s.reportH.List)
	mux.HandleFunc("GET /api/reports/mine", s.reportH.Mine)
	mux.HandleFunc("GET /api/reports/category/{category}", s.reportH.ListByCategory)

	// Moderation
	mux.HandleFunc("GET /api/moderation/pending", s.moderationH.Pending)
	mux.HandleFunc("POST /api/moderation/reports/{id}/approve", s.moderationH.Approve)
	mux.HandleFunc("POST /api/moderation/reports/{id}/reject", s.moderationH.Reject)

	// Notification preferences + polling control
	mux.HandleFunc("GET /api/preferences", s.prefsH.Get)
	mux.HandleFunc("PUT /api/preferences", s.prefsH.Update)
	mux.HandleFunc("GET /api/notifications/seen", s.prefsH.SeenCount)
	mux.HandleFunc("DELETE /api/notifications/seen", s.prefsH.ClearSeen)
	mux.HandleFunc("GET /api/polling", s.prefsH.PollingStatus)
	mux.HandleFunc("POST /api/polling/start", s.prefsH.StartPolling)
	mux.HandleFunc("POST /api/polling/stop", s.prefsH.StopPolling)
	mux.HandleFunc("POST /api/polling/foreground", s.prefsH.Foreground)

	// Device plumbing
	mux.HandleFunc("POST /api/device/location", s.deviceH.UpdateLocation)
	mux.HandleFunc("POST /api/push/subscribe", s.deviceH.Subscribe)
	mux.HandleFunc("GET /api/push/key", s.deviceH.VAPIDKey)

	// UI event stream
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
