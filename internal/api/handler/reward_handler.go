package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/green-credits/internal/api/middleware"
	"github.com/d60-Lab/green-credits/pkg/response"
)

// ListRewards 可兑换的奖励
// @Summary 奖励列表
// @Tags 兑换
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Reward}
// @Router /api/v1/rewards [get]
func (h *Handler) ListRewards(c *gin.Context) {
	list, err := h.redemptions.ListRewards(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

// Redeem 兑换奖励
// @Summary 兑换
// @Tags 兑换
// @Produce json
// @Security BearerAuth
// @Param id path string true "奖励ID"
// @Success 201 {object} response.Response{data=model.Redemption}
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/rewards/{id}/redeem [post]
func (h *Handler) Redeem(c *gin.Context) {
	rd, err := h.redemptions.Redeem(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rd)
}
