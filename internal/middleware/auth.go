package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/jwtutil"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const callerKey = "caller"

var errInvalidFormat = errors.New("invalid authorization format, expected Bearer token")

// Auth validates bearer tokens issued by the account service
type Auth struct {
	jwt *jwtutil.JWTUtil
}

func NewAuth(jwt *jwtutil.JWTUtil) *Auth {
	return &Auth{jwt: jwt}
}

// Required rejects requests without a valid bearer token
func (a *Auth) Required(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		caller, err := a.parse(authHeader)
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set(callerKey, caller)
		c.Set("user_id", caller.UserID)
		return next(c)
	}
}

// Optional attaches the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (a *Auth) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
			caller, err := a.parse(authHeader)
			if err != nil {
				logger.FromContext(c).Debug("Ignoring invalid token on optional route", zap.Error(err))
			} else {
				c.Set(callerKey, caller)
				c.Set("user_id", caller.UserID)
			}
		}
		return next(c)
	}
}

func (a *Auth) parse(authHeader string) (*service.Caller, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errInvalidFormat
	}
	claims, err := a.jwt.ValidateToken(parts[1])
	if err != nil {
		return nil, err
	}
	return &service.Caller{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// RequireRole must run after Required
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFromContext(c)
			if caller == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}
			for _, role := range roles {
				if caller.Role == role {
					return next(c)
				}
			}
			logger.FromContext(c).Warn("Role not allowed",
				zap.Uint("user_id", caller.UserID),
				zap.String("role", caller.Role),
				zap.Strings("allowed", roles))
			prometheus.RecordAuthError("forbidden_role")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to perform this action"})
		}
	}
}

// CallerFromContext returns the authenticated caller, or nil for anonymous requests
func CallerFromContext(c echo.Context) *service.Caller {
	caller, _ := c.Get(callerKey).(*service.Caller)
	return caller
}
