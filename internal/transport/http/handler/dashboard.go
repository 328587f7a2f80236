package handler

import (
	"net/http"

	"github.com/community-hub/internal/application/summary"
	"go.uber.org/zap"
)

// DashboardHandler serves the aggregated counters shown on the dashboard header.
type DashboardHandler struct {
	responder
	svc summary.Service
}

func NewDashboardHandler(svc summary.Service, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{responder: newResponder(log), svc: svc}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
