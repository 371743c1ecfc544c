package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eyeson-app/eyeson/internal/auth"
	"github.com/eyeson-app/eyeson/internal/geo"
	"github.com/eyeson-app/eyeson/internal/location"
	"github.com/eyeson-app/eyeson/internal/notify"
	"github.com/eyeson-app/eyeson/internal/store"
)

// DeviceHandler covers the device-side plumbing: location/token upkeep and
// web-push subscription registration.
type DeviceHandler struct {
	locations *location.Manager
	userStore *store.UserStore
	pushStore *store.PushStore
	pushSvc   *notify.WebPushService
	logger    *slog.Logger
}

func NewDeviceHandler(lm *location.Manager, us *store.UserStore, ps *store.PushStore, svc *notify.WebPushService, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{locations: lm, userStore: us, pushStore: ps, pushSvc: svc, logger: logger}
}

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PushToken string  `json:"push_token"`
}

// UpdateLocation handles POST /api/device/location: records the device's
// position locally for the polling engine and upstream for fan-out freshness.
func (h *DeviceHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid coordinates"})
		return
	}

	h.locations.Set(geo.Point{Latitude: req.Latitude, Longitude: req.Longitude})

	if err := h.userStore.UpdateLocationAndToken(userID, req.Latitude, req.Longitude, req.PushToken); err != nil {
		h.logger.Error("update user location", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update location"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe.
func (h *DeviceHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint, p256dh, and auth are required"})
		return
	}

	sub, err := h.pushStore.CreateSubscription(userID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save subscription"})
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// VAPIDKey handles GET /api/push/key: the public key clients subscribe with.
func (h *DeviceHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"key": h.pushSvc.VAPIDPublicKey()})
}
