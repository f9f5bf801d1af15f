package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// @Summary Pipeline summary
// @Description Deal count, total value and weighted value per stage. REP and READ_ONLY users see only their own deals.
// @Tags Reports
// @Produce json
// @Success 200 {object} domain.PipelineSummaryDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/pipeline [get]
func (h *ReportHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	summary, err := h.reportService.PipelineSummary(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to build pipeline report")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// @Summary Activity statistics
// @Description Pending, completed and overdue activity counts visible to the caller
// @Tags Reports
// @Produce json
// @Success 200 {object} domain.ActivityStatsDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/activities [get]
func (h *ReportHandler) Activities(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	stats, err := h.reportService.ActivityStats(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to build activity report")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
