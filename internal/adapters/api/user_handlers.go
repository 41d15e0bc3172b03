package api

import (
	"net/http"

	"tourbook/internal/adapters/api/middleware"
	"tourbook/internal/application/query"
	"tourbook/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// ListUsers godoc
// @Summary      List users
// @Description  Filter, sort, project and paginate users (admin only)
// @Tags         users
// @Produce      json
// @Param        sort   query string false "Comma separated sort fields, '-' for descending"
// @Param        fields query string false "Comma separated fields to return"
// @Param        page   query int    false "Page number" default(1)
// @Param        limit  query int    false "Page size" default(4)
// @Success      200 {object} map[string]any
// @Failure      401 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /users [get]
// @Security     CookieAuth
func (h *Handler) ListUsers(c *gin.Context) {
	spec, ok := h.translate(c, query.Users)
	if !ok {
		return
	}

	users, err := h.auth.ListUsers(c.Request.Context(), spec)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	writeList(c, spec, users)
}

// CreateUser godoc
// @Summary      Create user
// @Description  Create a user with any role (admin only)
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user body auth.UserCreateRequest true "User creation request"
// @Success      201 {object} auth.User
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /users [post]
// @Security     CookieAuth
func (h *Handler) CreateUser(c *gin.Context) {
	var req auth.UserCreateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	user, err := h.auth.CreateUser(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser godoc
// @Summary      Get user details
// @Description  Get details for a specific user (admin only)
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} auth.User
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /users/{id} [get]
// @Security     CookieAuth
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser godoc
// @Summary      Update user
// @Description  Update name, email, role or active flag (admin only). Deactivation revokes sessions.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id   path string                 true "User ID"
// @Param        user body auth.UserUpdateRequest true "User update request"
// @Success      200 {object} auth.User
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /users/{id} [patch]
// @Security     CookieAuth
func (h *Handler) UpdateUser(c *gin.Context) {
	var req auth.UserUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	user, err := h.auth.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary      Delete user
// @Description  Delete a user and revoke its sessions (admin only)
// @Tags         users
// @Param        id path string true "User ID"
// @Success      204
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /users/{id} [delete]
// @Security     CookieAuth
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.auth.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
