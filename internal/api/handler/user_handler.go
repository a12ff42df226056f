package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emphasys/identity/internal/api/metrics"
	"github.com/emphasys/identity/internal/core/ports"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service ports.AccountService
	auth    ports.AuthService
}

func NewUserHandler(service ports.AccountService, auth ports.AuthService) *UserHandler {
	return &UserHandler{service: service, auth: auth}
}

// List handles GET /api/user/.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/user/ [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context(), PrincipalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Create handles POST /api/user/. On an empty store no credentials are needed
// and the response carries tokens for the new superuser.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  createUserResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/user/ [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.CreateUser(c.Request().Context(), PrincipalFrom(c), ports.CreateUserInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		RoleID:               req.RoleID,
		Enabled:              req.Enabled,
		ChangePassword:       req.ChangePwd,
	})
	if err != nil {
		return err
	}
	metrics.AccountMutationsTotal.WithLabelValues("user_create").Inc()

	resp := createUserResponse{User: toUserResponse(res.User)}
	if res.Bootstrapped {
		metrics.BootstrapTotal.Inc()
		pair, err := h.auth.Tokens(res.User)
		if err != nil {
			return err
		}
		tokens := toTokenResponse(pair)
		resp.Tokens = &tokens
	}
	return c.JSON(http.StatusCreated, resp)
}

// Update handles PATCH /api/user/:id.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Editable fields"
// @Success      200   {object}  userResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/user/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(c.Request().Context(), PrincipalFrom(c), id, ports.UpdateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		RoleID:    req.RoleID,
		ClearRole: req.ClearRole,
	})
	if err != nil {
		return err
	}
	metrics.AccountMutationsTotal.WithLabelValues("user_update").Inc()
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// SetEnabled handles PATCH /api/user/:id/enabled.
//
// @Summary      Enable or disable a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      setEnabledRequest  true  "Desired state"
// @Success      200   {object}  userResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/user/{id}/enabled [patch]
func (h *UserHandler) SetEnabled(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req setEnabledRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.SetUserEnabled(c.Request().Context(), PrincipalFrom(c), id, *req.Enabled)
	if err != nil {
		return err
	}
	op := "user_disable"
	if *req.Enabled {
		op = "user_enable"
	}
	metrics.AccountMutationsTotal.WithLabelValues(op).Inc()
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /api/user/:id.
//
// @Summary      Soft-delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/user/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.Request().Context(), PrincipalFrom(c), id); err != nil {
		return err
	}
	metrics.AccountMutationsTotal.WithLabelValues("user_delete").Inc()
	return c.NoContent(http.StatusNoContent)
}
