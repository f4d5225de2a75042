package handler

import (
	reportapp "github.com/finadmin/backend/internal/application/report"
	"github.com/finadmin/backend/internal/domain/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles dashboard reporting endpoints
type ReportHandler struct {
	BaseHandler
	service *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{
		service: service,
	}
}

// GetDashboard returns the aggregated dashboard figures for the requested
// period. An unrecognized period value falls back to the current month.
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	period := report.Period(c.DefaultQuery("period", string(report.PeriodMonth)))

	dashboard, err := h.service.GetDashboard(c.Request.Context(), period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dashboard)
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/dashboard", h.GetDashboard)
	}
}
