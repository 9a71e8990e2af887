package handler

import (
	"context"
	"net/http"

	"github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/chart"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ChartHandler renders SVG charts for the calling rep's restaurant
type ChartHandler struct {
	insights *service.InsightService
}

func NewChartHandler(insights *service.InsightService) *ChartHandler {
	return &ChartHandler{insights: insights}
}

func (h *ChartHandler) ReservationsByDay(c echo.Context) error {
	return h.render(c, "Reservations by Day of Week", h.insights.ReservationsByDay)
}

func (h *ChartHandler) ReservationTrend(c echo.Context) error {
	return h.render(c, "Reservation Trend (Last 12 Months)", h.insights.ReservationTrend)
}

func (h *ChartHandler) RatingDistribution(c echo.Context) error {
	return h.render(c, "Rating Distribution", h.insights.RatingDistribution)
}

func (h *ChartHandler) render(c echo.Context, title string, load func(context.Context, uint) ([]chart.Point, error)) error {
	log := logger.FromContext(c)

	chartType, err := chart.ParseType(c.QueryParam("type"))
	if err != nil {
		log.Warn("Unknown chart type", zap.String("type", c.QueryParam("type")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unknown chart type. Use bar, pie or line."})
	}

	caller := middleware.CallerFromContext(c)
	points, err := load(c.Request().Context(), caller.UserID)
	if err != nil {
		return respondError(c, err, "load chart data")
	}

	return c.Blob(http.StatusOK, chart.ContentType, chart.Render(chartType, title, points))
}
