package handler

import (
	"net/http"

	"swiftaza/internal/dto"
	"swiftaza/internal/middleware"
	"swiftaza/internal/model"
	"swiftaza/internal/service"

	"github.com/gin-gonic/gin"
)

// UsersHandler serves the per-kind account routes (/buyer, /seller, /manager)
// and the card-holder routes under /user. Account changes apply to the
// caller's own account unless the caller is a manager.
type UsersHandler struct {
	svc   service.UserService
	guard middleware.PermissionChecker
}

func NewUsersHandler(svc service.UserService, guard middleware.PermissionChecker) *UsersHandler {
	return &UsersHandler{svc: svc, guard: guard}
}

// Register godoc
// @Summary Register a buyer, seller or manager
// @Description Manager accounts can only be created by an authenticated manager.
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "Account"
// @Success 201 {object} dto.RegisterResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/buyer [post]
// @Router /v1/seller [post]
// @Router /v1/manager [post]
func (h *UsersHandler) Register(kind model.UserKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RegisterRequest
		if !bindAndValidate(c, &req) {
			return
		}
		resp, err := h.svc.Register(c.Request.Context(), kind, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// Update godoc
// @Summary Update the caller's account, or any account for a manager
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.UpdateUserRequest true "id, email or card number plus changed fields"
// @Success 200 {object} dto.UpdateUserResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/buyer/update [put]
// @Router /v1/seller/update [put]
func (h *UsersHandler) Update(kind model.UserKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var req dto.UpdateUserRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if !ownsKey(claims, req.ID) {
			manager, ok := isManager(c, h.guard, claims)
			if !ok {
				return
			}
			if !manager {
				forbidOtherAccount(c)
				return
			}
		}
		resp, err := h.svc.Update(c.Request.Context(), kind, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *UsersHandler) DeleteByFullName(kind model.UserKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		name, ok := pathParam(c, "full_name")
		if !ok {
			return
		}
		manager, ok := isManager(c, h.guard, claims)
		if !ok {
			return
		}
		if !manager {
			me, err := h.svc.GetByID(c.Request.Context(), claims.ID())
			if err != nil {
				respondError(c, err)
				return
			}
			if me.User.FullName != name || me.User.UserType != string(kind) {
				forbidOtherAccount(c)
				return
			}
		}
		resp, err := h.svc.DeleteByFullName(c.Request.Context(), kind, name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetByCardNumber godoc
// @Summary Look up a card holder
// @Tags users
// @Produce json
// @Param card_number path string true "Card number"
// @Success 200 {object} dto.UserDetailResponse
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/user/get_user/{card_number} [get]
func (h *UsersHandler) GetByCardNumber(c *gin.Context) {
	card, ok := pathParam(c, "card_number")
	if !ok {
		return
	}
	resp, err := h.svc.GetByCardNumber(c.Request.Context(), card)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) DeleteByCardNumber(c *gin.Context) {
	card, ok := pathParam(c, "card_number")
	if !ok {
		return
	}
	resp, err := h.svc.DeleteByCardNumber(c.Request.Context(), card)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListAll returns every account regardless of kind.
func (h *UsersHandler) ListAll(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
