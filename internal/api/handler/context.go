package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/emphasys/identity/internal/core/domain"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated principal on the request context.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal set by the auth middleware, or nil.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

// requirePrincipal fails fast when a route that needs a principal runs without one,
// which means the auth middleware was not mounted.
func requirePrincipal(c echo.Context) (*domain.Principal, error) {
	p := PrincipalFrom(c)
	if p == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return p, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
