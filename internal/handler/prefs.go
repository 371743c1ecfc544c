package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eyeson-app/eyeson/internal/model"
	"github.com/eyeson-app/eyeson/internal/poll"
	"github.com/eyeson-app/eyeson/internal/prefs"
	"github.com/eyeson-app/eyeson/internal/seen"
	"github.com/eyeson-app/eyeson/internal/websocket"
)

type PreferencesHandler struct {
	preferences *prefs.Preferences
	tracker     *seen.Tracker
	engine      *poll.Engine
	hub         *websocket.Hub
}

func NewPreferencesHandler(p *prefs.Preferences, tracker *seen.Tracker, engine *poll.Engine, hub *websocket.Hub) *PreferencesHandler {
	return &PreferencesHandler{preferences: p, tracker: tracker, engine: engine, hub: hub}
}

type preferencesResponse struct {
	RadiusMeters      float64          `json:"radius_meters"`
	EnabledCategories []model.Category `json:"enabled_categories"`
	SeverityThreshold model.Severity   `json:"severity_threshold"`
}

// Get handles GET /api/preferences.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

type preferencesRequest struct {
	RadiusMeters      *float64          `json:"radius_meters"`
	EnabledCategories *[]model.Category `json:"enabled_categories"`
	SeverityThreshold *model.Severity   `json:"severity_threshold"`
}

// Update handles PUT /api/preferences. Absent fields are left unchanged; the
// radius is clamped to the allowed range rather than rejected.
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.SeverityThreshold != nil && !req.SeverityThreshold.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown severity"})
		return
	}
	if req.EnabledCategories != nil {
		for _, c := range *req.EnabledCategories {
			if !c.Valid() {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
				return
			}
		}
	}

	if req.RadiusMeters != nil {
		h.preferences.SetRadius(*req.RadiusMeters)
	}
	if req.EnabledCategories != nil {
		h.preferences.SetEnabledCategories(*req.EnabledCategories)
	}
	if req.SeverityThreshold != nil {
		h.preferences.SetThreshold(*req.SeverityThreshold)
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityPreferences, websocket.ActionUpdated, "", nil))
	}

	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *PreferencesHandler) snapshot() preferencesResponse {
	categories := h.preferences.EnabledCategories()
	if categories == nil {
		categories = []model.Category{}
	}
	return preferencesResponse{
		RadiusMeters:      h.preferences.Radius(),
		EnabledCategories: categories,
		SeverityThreshold: h.preferences.Threshold(),
	}
}

// SeenCount handles GET /api/notifications/seen.
func (h *PreferencesHandler) SeenCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.tracker.Count()})
}

// ClearSeen handles DELETE /api/notifications/seen.
func (h *PreferencesHandler) ClearSeen(w http.ResponseWriter, r *http.Request) {
	h.tracker.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type pollingStatus struct {
	Running    bool       `json:"running"`
	LastPolled *time.Time `json:"last_polled,omitempty"`
}

// PollingStatus handles GET /api/polling.
func (h *PreferencesHandler) PollingStatus(w http.ResponseWriter, r *http.Request) {
	status := pollingStatus{Running: h.engine.Running()}
	if t, ok := h.engine.LastPolled(); ok {
		status.LastPolled = &t
	}
	writeJSON(w, http.StatusOK, status)
}

// StartPolling handles POST /api/polling/start. The engine outlives the
// request, so it runs off the background context rather than the request's.
func (h *PreferencesHandler) StartPolling(w http.ResponseWriter, r *http.Request) {
	h.engine.Start(context.Background())
	writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

// StopPolling handles POST /api/polling/stop.
func (h *PreferencesHandler) StopPolling(w http.ResponseWriter, r *http.Request) {
	h.engine.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

// Foreground handles POST /api/polling/foreground: an app-lifecycle transition
// triggers an immediate cycle.
func (h *PreferencesHandler) Foreground(w http.ResponseWriter, r *http.Request) {
	h.engine.Poll(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"running": h.engine.Running()})
}
