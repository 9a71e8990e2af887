package handler

import (
	"net/http"

	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	insights *service.InsightService
}

func NewDashboardHandler(insights *service.InsightService) *DashboardHandler {
	return &DashboardHandler{insights: insights}
}

func (h *DashboardHandler) Rep(c echo.Context) error {
	dashboard, err := h.insights.RepDashboard(c.Request().Context(), middleware.CallerFromContext(c))
	if err != nil {
		return respondError(c, err, "load dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) Reviewer(c echo.Context) error {
	dashboard, err := h.insights.ReviewerDashboard(c.Request().Context(), middleware.CallerFromContext(c))
	if err != nil {
		return respondError(c, err, "load dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}
