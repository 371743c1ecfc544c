package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eyeson-app/eyeson/internal/auth"
	"github.com/eyeson-app/eyeson/internal/model"
	"github.com/eyeson-app/eyeson/internal/store"
	"github.com/eyeson-app/eyeson/internal/websocket"
)

type ReportHandler struct {
	reportStore *store.ReportStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewReportHandler(rs *store.ReportStore, hub *websocket.Hub, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reportStore: rs, hub: hub, logger: logger}
}

func (h *ReportHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type reportRequest struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ImagePath   string  `json:"image_path"`
}

// Create handles POST /api/reports. New reports always start pending.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	category := model.Category(req.Category)
	if !category.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		return
	}

	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid coordinates"})
		return
	}

	report, err := h.reportStore.Create(userID, category, req.Description, req.Latitude, req.Longitude, req.ImagePath)
	if err != nil {
		h.logger.Error("create report", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create report"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityReport, websocket.ActionCreated, report.ID, nil))

	writeJSON(w, http.StatusCreated, report)
}

// List handles GET /api/reports?status=approved. Default status is approved.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.ReportStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.StatusApproved
	}
	if !status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	reports, err := h.reportStore.ListByStatus(status)
	if err != nil {
		h.logger.Error("list reports", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list reports"})
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// ListByCategory handles GET /api/reports/category/{category}. Only approved
// reports are returned.
func (h *ReportHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.PathValue("category"))
	if !category.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return
	}

	reports, err := h.reportStore.ListByCategory(category)
	if err != nil {
		h.logger.Error("list reports by category", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list reports"})
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// Mine handles GET /api/reports/mine: all of the caller's own reports.
func (h *ReportHandler) Mine(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportStore.ListByAuthor(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list own reports", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list reports"})
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
