package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/aggregate"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetSummary handles GET /api/v1/dashboard/summary
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	summary, err := h.dashboardService.Summary(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get dashboard summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetCharts handles GET /api/v1/dashboard/charts?granularity=day|month
func (h *DashboardHandler) GetCharts(c echo.Context) error {
	g, err := aggregate.ParseGranularity(c.QueryParam("granularity"))
	if err != nil {
		return NewValidationError(c, "Invalid granularity", []ValidationError{
			{Field: "granularity", Message: "Must be one of: day, month"},
		})
	}

	charts, err := h.dashboardService.Charts(c.Request().Context(), g)
	if err != nil {
		return respondError(c, err, "Failed to get charts")
	}
	return c.JSON(http.StatusOK, charts)
}

// GetShopping handles GET /api/v1/dashboard/shopping
func (h *DashboardHandler) GetShopping(c echo.Context) error {
	overview, err := h.dashboardService.Shopping(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get shopping overview")
	}
	return c.JSON(http.StatusOK, overview)
}
