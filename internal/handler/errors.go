package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type errorMapping struct {
	err    error
	status int
}

var serviceErrors = []errorMapping{
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrInvalidToken, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// respondError maps a service error onto a status code. Unknown errors
// are logged and reported as "Failed to <action>".
func respondError(c echo.Context, err error, action string) error {
	log := logger.FromContext(c)

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			msg := service.Message(err, http.StatusText(m.status))
			log.Warn("Request rejected",
				zap.String("action", action),
				zap.Int("status", m.status),
				zap.String("reason", msg))
			return c.JSON(m.status, echo.Map{"error": msg})
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("Request timed out", zap.String("action", action))
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timeout"})
	case errors.Is(err, context.Canceled):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request cancelled"})
	}

	log.Error("Failed to "+action, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to " + action})
}

var (
	errInvalidRequest = errors.New("Invalid request data")
	errNoFile         = errors.New("Please select a file to upload.")
)

// decode binds the body into req and runs the registered validator
func decode(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.FromContext(c).Warn("Invalid request data", zap.Error(err))
		return errInvalidRequest
	}
	if err := c.Validate(req); err != nil {
		logger.FromContext(c).Warn("Validation failed", zap.Error(err))
		return err
	}
	return nil
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}

func parseID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func invalidID(c echo.Context, name string) error {
	logger.FromContext(c).Warn("Invalid path parameter", zap.String("param", name), zap.String("value", c.Param(name)))
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid " + name})
}
