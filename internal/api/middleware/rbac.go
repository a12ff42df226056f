package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emphasys/identity/internal/api/handler"
	"github.com/emphasys/identity/internal/api/metrics"
	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
	"github.com/emphasys/identity/internal/core/service"
)

// RequireAdminTier lets a request through only when the principal set by Auth
// holds one of the admin-tier roles. Refusals are counted and sent to activity.
// Services repeat the check inside their transaction.
func RequireAdminTier(gate *service.Gate, roles ports.RoleReader, activity ports.ActivitySink, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := handler.PrincipalFrom(c)
			err := gate.Authorize(c.Request().Context(), roles, p)
			if err == nil {
				return next(c)
			}
			if errors.Is(err, domain.ErrNotAuthorized) {
				metrics.AuthorizationDeniedTotal.WithLabelValues(c.Path()).Inc()
				if activity != nil {
					service.RecordDenied(c.Request().Context(), activity, log, p, c.Request().Method+" "+c.Path(), time.Now())
				}
			}
			return err
		}
	}
}
