package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/green-credits/internal/api/middleware"
	"github.com/d60-Lab/green-credits/pkg/response"
)

// Wallet 余额与对账单
// @Summary 钱包
// @Tags 账本
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=service.Wallet}
// @Router /api/v1/wallet [get]
func (h *Handler) Wallet(c *gin.Context) {
	w, err := h.ledger.Wallet(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, w)
}

// Statement 对账单，最新在前
// @Summary 对账单
// @Tags 账本
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.StatementLine}
// @Router /api/v1/ledger/statement [get]
func (h *Handler) Statement(c *gin.Context) {
	lines, err := h.ledger.Statement(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, lines)
}

// Multiplier 当前积分加成
// @Summary 当前加成
// @Tags 账本
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]float64}
// @Router /api/v1/multiplier [get]
func (h *Handler) Multiplier(c *gin.Context) {
	m, err := h.multipliers.CurrentMultiplier(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"multiplier": m})
}
