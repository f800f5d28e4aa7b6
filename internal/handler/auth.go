package handler

import (
	"net/http"

	"swiftaza/internal/dto"
	"swiftaza/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyUser godoc
// @Summary Confirm an account with the emailed code
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.VerifyUserRequest true "Email and code"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/verify_user [post]
func (h *AuthHandler) VerifyUser(c *gin.Context) {
	var req dto.VerifyUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.VerifyUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req dto.ResendCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ResendCode(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	resp, err := h.svc.Logout(c.Request.Context(), claims.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Status(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	resp, err := h.svc.Status(c.Request.Context(), claims.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
