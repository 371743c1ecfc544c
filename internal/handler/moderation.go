package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eyeson-app/eyeson/internal/auth"
	"github.com/eyeson-app/eyeson/internal/model"
	"github.com/eyeson-app/eyeson/internal/moderate"
	"github.com/eyeson-app/eyeson/internal/store"
	"github.com/eyeson-app/eyeson/internal/websocket"
)

type ModerationHandler struct {
	workflow    *moderate.Workflow
	reportStore *store.ReportStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewModerationHandler(wf *moderate.Workflow, rs *store.ReportStore, hub *websocket.Hub, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{workflow: wf, reportStore: rs, hub: hub, logger: logger}
}

// Pending handles GET /api/moderation/pending.
func (h *ModerationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if !auth.IsModerator(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "moderator access required"})
		return
	}

	reports, err := h.reportStore.ListByStatus(model.StatusPending)
	if err != nil {
		h.logger.Error("list pending reports", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list reports"})
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// Approve handles POST /api/moderation/reports/{id}/approve.
func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, model.StatusApproved)
}

// Reject handles POST /api/moderation/reports/{id}/reject.
func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, model.StatusRejected)
}

func (h *ModerationHandler) review(w http.ResponseWriter, r *http.Request, status model.ReportStatus) {
	moderator, _ := auth.FromContext(r.Context())
	reportID := r.PathValue("id")
	if reportID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report id is required"})
		return
	}

	var err error
	if status == model.StatusApproved {
		err = h.workflow.Approve(r.Context(), reportID, moderator)
	} else {
		err = h.workflow.Reject(r.Context(), reportID, moderator)
	}

	switch {
	case errors.Is(err, moderate.ErrNotModerator):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "moderator access required"})
		return
	case errors.Is(err, store.ErrNotPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "report has already been reviewed"})
		return
	case err != nil:
		h.logger.Error("review report", "report_id", reportID, "status", string(status), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update report"})
		return
	}

	action := websocket.ActionApproved
	if status == model.StatusRejected {
		action = websocket.ActionRejected
	}
	h.broadcast(websocket.NewMessage(websocket.EntityReport, action, reportID, nil))

	writeJSON(w, http.StatusOK, map[string]string{"id": reportID, "status": string(status)})
}

func (h *ModerationHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}
