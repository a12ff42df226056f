package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emphasys/identity/internal/api/metrics"
	"github.com/emphasys/identity/internal/core/ports"
)

type RoleHandler struct {
	service ports.AccountService
}

func NewRoleHandler(service ports.AccountService) *RoleHandler {
	return &RoleHandler{service: service}
}

// List handles GET /api/role/.
//
// @Summary      List roles
// @Description  Roles ordered by id; admin_tier marks the roles allowed to administer accounts.
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   roleResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/role/ [get]
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.service.ListRoles(c.Request().Context(), PrincipalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponses(roles))
}

// Create handles POST /api/role/.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRoleRequest  true  "Role name"
// @Success      201   {object}  roleResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/role/ [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role, err := h.service.CreateRole(c.Request().Context(), PrincipalFrom(c), req.Name)
	if err != nil {
		return err
	}
	metrics.AccountMutationsTotal.WithLabelValues("role_create").Inc()
	return c.JSON(http.StatusCreated, toRoleResponse(*role))
}

// Delete handles DELETE /api/role/:id. Unknown and still-referenced roles
// report deleted=false with status 200.
//
// @Summary      Delete a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      int  true  "Role id"
// @Success      200  {object}  deleteRoleResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/role/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	deleted, err := h.service.DeleteRole(c.Request().Context(), PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	if deleted {
		metrics.AccountMutationsTotal.WithLabelValues("role_delete").Inc()
	}
	return c.JSON(http.StatusOK, deleteRoleResponse{Deleted: deleted})
}
