package handler

import (
	"net/http"
	"strconv"
	"strings"

	"swiftaza/internal/apierror"
	"swiftaza/internal/dto"
	"swiftaza/internal/model"
	"swiftaza/internal/service"

	"github.com/gin-gonic/gin"
)

// ManagerHandler serves the administrative routes under /manager.
type ManagerHandler struct {
	users service.UserService
	perms service.PermissionService
}

func NewManagerHandler(users service.UserService, perms service.PermissionService) *ManagerHandler {
	return &ManagerHandler{users: users, perms: perms}
}

// ListUsers godoc
// @Summary List sellers, buyers or all users
// @Tags manager
// @Produce json
// @Param type path string true "seller(s) | buyer(s) | manager(s) | user(s) | all"
// @Success 200 {object} dto.UserListResponse
// @Security BearerAuth
// @Router /v1/manager/users/{type} [get]
func (h *ManagerHandler) ListUsers(c *gin.Context) {
	raw := strings.ToLower(c.Param("type"))
	var kind model.UserKind
	if raw != "all" && raw != "user" && raw != "users" {
		k, err := model.ParseUserKind(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid type provided"))
			return
		}
		kind = k
	}
	resp, err := h.users.List(c.Request.Context(), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ManagerHandler) GetUser(c *gin.Context) {
	email, ok := pathParam(c, "email")
	if !ok {
		return
	}
	resp, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteUser accepts an id or an email in :id.
func (h *ManagerHandler) DeleteUser(c *gin.Context) {
	key, ok := pathParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.users.DeleteByKey(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ManagerHandler) DeletedUsers(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, apierror.New("limit must be between 1 and 500"))
		return
	}
	resp, err := h.users.DeletedUsers(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_users": resp, "total": len(resp)})
}

// ── Roles & overrides ────────────────────────────────────────────────────────

func (h *ManagerHandler) AssignRole(c *gin.Context) {
	key, ok := pathParam(c, "id")
	if !ok {
		return
	}
	var req dto.AssignRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.perms.AssignRole(c.Request.Context(), key, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ManagerHandler) SetPermissions(c *gin.Context) {
	key, ok := pathParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetOverridesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.perms.SetOverrides(c.Request.Context(), key, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ManagerHandler) RemovePermission(c *gin.Context) {
	key, ok := pathParam(c, "id")
	if !ok {
		return
	}
	code, ok := pathParam(c, "code")
	if !ok {
		return
	}
	resp, err := h.perms.RemoveOverride(c.Request.Context(), key, code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
