package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "shoply/internal/errors"
	"shoply/internal/services"
)

// reportDateLayout is the query-string date format for report windows.
const reportDateLayout = "2006-01-02"

// AnalyticsHandler handles spend reports and dashboard aggregates.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetSpendReport handles generating a date-range spend report.
// @Summary     Spend report
// @Description Aggregate purchase activity over a date range, grouped per category, optionally restricted to one category
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       start_date  query string true  "Window start (YYYY-MM-DD)"
// @Param       end_date    query string true  "Window end, inclusive (YYYY-MM-DD)"
// @Param       category_id query string false "Restrict to one category"
// @Success     200 {object} services.SpendReport "Report"
// @Failure     400 {object} ErrorResponse "Invalid input or date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/report [get]
func (h *AnalyticsHandler) GetSpendReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	startDate, err := time.Parse(reportDateLayout, c.Query("start_date"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date must be a YYYY-MM-DD date"))
		return
	}
	endDate, err := time.Parse(reportDateLayout, c.Query("end_date"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must be a YYYY-MM-DD date"))
		return
	}

	var categoryID *string
	if v := c.Query("category_id"); v != "" {
		categoryID = &v
	}

	report, err := h.analyticsService.SpendReport(userID, startDate, endDate, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetDashboard handles fetching the dashboard aggregates.
// @Summary     Dashboard aggregates
// @Description Get cross-list statistics: list and purchase counts, total spend, average completion, per-priority counts, and current budget usage
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardStats "Dashboard statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.analyticsService.Dashboard(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": stats})
}
