package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/green-credits/internal/api/middleware"
	"github.com/d60-Lab/green-credits/pkg/response"
)

type voteRequest struct {
	Approve *bool   `json:"approve" binding:"required"`
	Reason  *string `json:"reason" binding:"omitempty,max=1000"`
}

// ReviewQueue 待审核声明，最早提交在前
// @Summary 审核队列
// @Tags 审核
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 403 {object} response.Response
// @Router /api/v1/review/queue [get]
func (h *Handler) ReviewQueue(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	list, err := h.claims.ListPending(c.Request.Context(), offset, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// CastVote 审核投票
// @Summary 投票
// @Description 两票通过且无驳回则发放积分；两票驳回即驳回
// @Tags 审核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "声明ID"
// @Param request body voteRequest true "投票"
// @Success 200 {object} response.Response{data=service.VoteOutcome}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/claims/{id}/votes [post]
func (h *Handler) CastVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	out, err := h.reviews.CastVote(c.Request.Context(), c.Param("id"), middleware.UserID(c), *req.Approve, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}
