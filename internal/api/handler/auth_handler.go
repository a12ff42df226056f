package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emphasys/identity/internal/api/metrics"
	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

type AuthHandler struct {
	authService    ports.AuthService
	accountService ports.AccountService
	cookies        CookieConfig
}

func NewAuthHandler(authService ports.AuthService, accountService ports.AccountService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, accountService: accountService, cookies: cookies}
}

// Login authenticates a user and returns an access/refresh token pair.
//
// @Summary      Login
// @Description  Returns the token pair as JSON, as HttpOnly cookies for HTML or htmx callers, or both.
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, _, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	return h.respondTokens(c, pair)
}

// Refresh exchanges a refresh token for a new pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token; the refresh cookie is used when absent"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	token := req.RefreshToken
	if token == "" {
		if ck, err := c.Cookie(h.cookies.refreshName()); err == nil {
			token = ck.Value
		}
	}
	if token == "" {
		return domain.ErrNotAuthenticated
	}

	pair, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()

	return h.respondTokens(c, pair)
}

// Logout revokes the presented access token and clears the session cookies.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), p); err != nil {
		return err
	}
	h.cookies.clear(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated principal.
//
// @Summary      Current principal
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  principalResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPrincipalResponse(p))
}

// ChangePassword replaces the caller's own password.
//
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/me/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err = h.accountService.ChangePassword(c.Request().Context(), p, req.CurrentPassword, req.NewPassword, req.PasswordConfirmation)
	if err != nil {
		return err
	}
	metrics.AccountMutationsTotal.WithLabelValues("password_change").Inc()
	return c.NoContent(http.StatusNoContent)
}

// respondTokens picks JSON, cookies, or both from the Accept and HX-Request headers.
func (h *AuthHandler) respondTokens(c echo.Context, pair domain.TokenPair) error {
	r := c.Request()
	cookie := wantsCookie(r)
	if cookie {
		h.cookies.set(c, pair)
	}
	if acceptsJSON(r) || !cookie {
		return c.JSON(http.StatusOK, toTokenResponse(pair))
	}
	return c.NoContent(http.StatusNoContent)
}
