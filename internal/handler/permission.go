package handler

import (
	"net/http"

	"swiftaza/internal/service"

	"github.com/gin-gonic/gin"
)

// PermissionHandler answers permission questions about the caller.
type PermissionHandler struct{ svc service.PermissionService }

func NewPermissionHandler(svc service.PermissionService) *PermissionHandler {
	return &PermissionHandler{svc: svc}
}

func (h *PermissionHandler) Mine(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	resp, err := h.svc.UserPermissions(c.Request.Context(), claims.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PermissionHandler) Check(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	code, ok := pathParam(c, "code")
	if !ok {
		return
	}
	resp, err := h.svc.Check(c.Request.Context(), claims.ID(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
