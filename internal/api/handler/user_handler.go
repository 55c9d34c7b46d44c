package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/platform/internal/core/domain"
	"github.com/taskhub/platform/internal/core/ports"
)

// UserHandler serves identity records. The task service's identity lookup
// calls GetByUsername.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GetByUsername handles GET /users/:username.
//
// @Summary      Look up a user by username
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Exact, case-sensitive username"
// @Success      200       {object}  userResponse
// @Failure      401
// @Failure      404       {object}  errorResponse
// @Router       /users/{username} [get]
func (h *UserHandler) GetByUsername(c echo.Context) error {
	username := c.Param("username")
	if c.Request().URL.RawPath != "" {
		// Routing ran on the escaped path, so the param is still escaped.
		unescaped, err := url.PathUnescape(username)
		if err != nil {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		}
		username = unescaped
	}

	user, err := h.service.GetByUsername(c.Request().Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Delete handles DELETE /users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  int  true  "Numeric user id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
