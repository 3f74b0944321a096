// internal/handlers/reports.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/lending-be/internal/core/ports"
)

// ReportHandler queues report generation
type ReportHandler struct {
	scheduler ports.ReportScheduler
	logger    *slog.Logger
}

// NewReportHandler creates a report handler. A nil scheduler means the
// queue is disabled and every request answers 503.
func NewReportHandler(scheduler ports.ReportScheduler, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		scheduler: scheduler,
		logger:    logger.With(slog.String("handler", "reports")),
	}
}

// ScheduleStockReport handles POST /api/v1/reports/stock
func (h *ReportHandler) ScheduleStockReport(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, r, http.StatusServiceUnavailable, "Report queue is not configured")
		return
	}

	taskID, err := h.scheduler.ScheduleStockReport(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to schedule stock report",
			slog.String("error", err.Error()))
		respondError(w, r, http.StatusInternalServerError, "Failed to schedule stock report")
		return
	}

	h.logger.InfoContext(r.Context(), "stock report scheduled",
		slog.String("task_id", taskID))

	respondJSON(w, r, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  "queued",
	})
}
