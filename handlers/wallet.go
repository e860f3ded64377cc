package handlers

import (
	"net/http"

	"qrmenu-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetWallet returns the caller's balance, code and recent top-ups
func (h *Handler) GetWallet(c *gin.Context) {
	wallet, err := h.Wallets.GetWallet(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, "get_wallet", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// IssueCode returns the caller's top-up code, creating it on first use
func (h *Handler) IssueCode(c *gin.Context) {
	code, err := h.Wallets.IssueCode(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, "issue_code", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code.Code})
}

type TopUpRequest struct {
	Code   string          `json:"code" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// TopUp credits the wallet behind a user code. Vendors call this.
func (h *Handler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	balance, err := h.Wallets.TopUp(c.Request.Context(), req.Code, req.Amount)
	if err != nil {
		h.respondError(c, "top_up", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Wallet topped up",
		"new_balance": balance.StringFixed(2),
	})
}
