package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/emphasys/identity/internal/api/handler"
	"github.com/emphasys/identity/internal/api/metrics"
	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

// Auth resolves the bearer token (header or session cookie) into a principal
// and stores it on the context. Requests without a token are rejected.
func Auth(auth ports.AuthService, cookieName string) echo.MiddlewareFunc {
	return authenticate(auth, cookieName, true)
}

// OptionalAuth is Auth for routes that also serve anonymous callers: a missing
// token passes through, a bad one is still rejected.
func OptionalAuth(auth ports.AuthService, cookieName string) echo.MiddlewareFunc {
	return authenticate(auth, cookieName, false)
}

func authenticate(auth ports.AuthService, cookieName string, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := handler.AccessToken(c, cookieName)
			if token == "" {
				if !required {
					return next(c)
				}
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return domain.ErrNotAuthenticated
			}

			p, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues(verificationResult(err)).Inc()
				return err
			}
			metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()

			handler.SetPrincipal(c, p)
			return next(c)
		}
	}
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		return "invalid"
	default:
		return "error"
	}
}
