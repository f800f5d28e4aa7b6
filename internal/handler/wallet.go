package handler

import (
	"net/http"

	"swiftaza/internal/apierror"
	"swiftaza/internal/dto"
	"swiftaza/internal/middleware"
	"swiftaza/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WalletHandler struct {
	svc   service.WalletService
	guard middleware.PermissionChecker
}

func NewWalletHandler(svc service.WalletService, guard middleware.PermissionChecker) *WalletHandler {
	return &WalletHandler{svc: svc, guard: guard}
}

// CreatePin godoc
// @Summary Create a wallet or reset its PIN
// @Description Callers manage their own wallet; managers may act for any user.
// @Tags wallet
// @Accept json
// @Produce json
// @Param body body dto.WalletPinRequest true "User and PIN"
// @Success 201 {object} dto.WalletPinResponse
// @Failure 403 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/wallet [post]
func (h *WalletHandler) CreatePin(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	var req dto.WalletPinRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid userId"))
		return
	}
	if userID != claims.ID() {
		manager, ok := isManager(c, h.guard, claims)
		if !ok {
			return
		}
		if !manager {
			forbidOtherAccount(c)
			return
		}
	}
	resp, err := h.svc.CreateOrUpdatePin(c.Request.Context(), userID, req.Pin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *WalletHandler) Get(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetWallet(c.Request.Context(), claims.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) Credit(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	var req dto.CreditRequest
	if !bindAndValidate(c, &req) {
		return
	}
	w, err := h.svc.GetWallet(c.Request.Context(), claims.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Credit(c.Request.Context(), uuid.MustParse(w.WalletID), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Debit requires the wallet PIN.
func (h *WalletHandler) Debit(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	var req dto.DebitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	w, err := h.svc.GetWallet(c.Request.Context(), claims.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	walletID := uuid.MustParse(w.WalletID)
	if err := h.svc.VerifyPin(c.Request.Context(), walletID, req.Pin); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Debit(c.Request.Context(), walletID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
