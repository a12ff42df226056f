package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emphasys/identity/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string      `json:"error"`
	Kind  domain.Kind `json:"kind,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "kind": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	kind := domain.KindOf(err)
	switch kind {
	case domain.KindInvalidCredentials:
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidCredentials.Error(), Kind: kind}
	case domain.KindTokenExpired:
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrTokenExpired.Error(), Kind: kind}
	case domain.KindTokenInvalid:
		return http.StatusForbidden, errorResponse{Error: domain.ErrTokenInvalid.Error(), Kind: kind}
	case domain.KindNotAuthorized:
		return http.StatusUnauthorized, errorResponse{Error: err.Error(), Kind: kind}
	case domain.KindConflict:
		return http.StatusConflict, errorResponse{Error: err.Error(), Kind: kind}
	case domain.KindNotFound:
		return http.StatusNotFound, errorResponse{Error: err.Error(), Kind: kind}
	case domain.KindValidation:
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: kind}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Kind: domain.KindInternal}
}
