package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todos/internal/logging"
	"github.com/dmitrijs2005/todos/internal/server/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const principalKey = "principal"

// PrincipalResolver authorizes an Authorization header value.
type PrincipalResolver interface {
	Authorize(ctx context.Context, header string) (auth.Principal, error)
}

var errAccessDenied = echo.NewHTTPError(http.StatusUnauthorized, "access denied")

// Authenticate resolves the caller from the Authorization header. Every
// authorization failure, including a token without a subject, produces the
// same 401 response; the reason only goes to the log.
func Authenticate(a PrincipalResolver, logger logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			p, err := a.Authorize(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
			switch {
			case err == nil && p == "":
				logger.Warn(ctx, "token has no subject")
				return errAccessDenied
			case err == nil:
			case auth.IsAuthError(err):
				logger.Warn(ctx, "access denied", "error", err)
				return errAccessDenied
			case errors.Is(err, auth.ErrKeySetUnavailable):
				logger.Error(ctx, "key set unavailable", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			default:
				logger.Error(ctx, "authorization failed", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}

			c.Set(principalKey, string(p))
			return next(c)
		}
	}
}

func principal(c echo.Context) string {
	p, _ := c.Get(principalKey).(string)
	return p
}

// RequestLogger logs one line per request through logger.
func RequestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info(c.Request().Context(), "request",
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	})
}

// CORS allows browser clients from any origin to call the API.
func CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	})
}
