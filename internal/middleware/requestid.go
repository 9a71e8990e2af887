package middleware

import (
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDMiddleware tags each request with an ID, keeping one supplied by the client
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(logger.RequestIDKey)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}

		c.Request().Header.Set(logger.RequestIDKey, requestID)
		c.Response().Header().Set(logger.RequestIDKey, requestID)
		c.Set(logger.RequestIDKey, requestID)

		return next(c)
	}
}
