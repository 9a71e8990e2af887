package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Health reports 503 when ping fails
func Health(ping func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			logger.FromContext(c).Error("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status": "unavailable",
				"error":  "database unreachable",
			})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
