package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/green-credits/internal/api/middleware"
	"github.com/d60-Lab/green-credits/internal/service"
	"github.com/d60-Lab/green-credits/pkg/response"
)

// MaxEvidenceBytes 证据文件大小上限
const MaxEvidenceBytes = 10 << 20

type submitClaimRequest struct {
	ActionCode  string    `form:"action_code" binding:"required"`
	Description string    `form:"description" binding:"required,max=4000"`
	OccurredAt  time.Time `form:"occurred_at" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Amount      *float64  `form:"amount" binding:"omitempty,gte=0"`
}

// ListActionTypes 行为类型目录
// @Summary 行为类型列表
// @Tags 声明
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.ActionType}
// @Router /api/v1/action-types [get]
func (h *Handler) ListActionTypes(c *gin.Context) {
	list, err := h.claims.ListActionTypes(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

// SubmitClaim 提交环保行为声明
// @Summary 提交声明
// @Description 同一用户同一小时内相同内容的声明会被拒绝（409）
// @Tags 声明
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param action_code formData string true "行为类型编码"
// @Param description formData string true "描述"
// @Param occurred_at formData string true "发生时间 RFC3339"
// @Param amount formData number false "收据金额"
// @Param evidence formData file false "证据文件"
// @Success 201 {object} response.Response{data=model.Claim}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/claims [post]
func (h *Handler) SubmitClaim(c *gin.Context) {
	var req submitClaimRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	evidence, err := readEvidence(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	claim, err := h.claims.Submit(c.Request.Context(), service.SubmitInput{
		UserID:      middleware.UserID(c),
		ActionCode:  req.ActionCode,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
		Amount:      req.Amount,
		Evidence:    evidence,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claim)
}

func readEvidence(c *gin.Context) (*service.Evidence, error) {
	fh, err := c.FormFile("evidence")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > MaxEvidenceBytes {
		return nil, fmt.Errorf("evidence exceeds %d bytes", MaxEvidenceBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxEvidenceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxEvidenceBytes {
		return nil, fmt.Errorf("evidence exceeds %d bytes", MaxEvidenceBytes)
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return &service.Evidence{Data: data, Filename: fh.Filename, MimeType: mime}, nil
}

// ListMyClaims 当前用户的声明
// @Summary 我的声明
// @Tags 声明
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/claims [get]
func (h *Handler) ListMyClaims(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	list, err := h.claims.ListByUser(c.Request.Context(), middleware.UserID(c), offset, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// GetClaim 声明详情（本人或审核员可见）
// @Summary 声明详情
// @Tags 声明
// @Produce json
// @Security BearerAuth
// @Param id path string true "声明ID"
// @Success 200 {object} response.Response{data=model.Claim}
// @Failure 404 {object} response.Response
// @Router /api/v1/claims/{id} [get]
func (h *Handler) GetClaim(c *gin.Context) {
	claim, err := h.claims.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claim.UserID != middleware.UserID(c) && !middleware.Role(c).CanReview() {
		response.Error(c, service.ErrClaimNotFound)
		return
	}
	response.Success(c, claim)
}

// SimilarClaims 相似声明（审核参考）
// @Summary 相似声明
// @Tags 审核
// @Produce json
// @Security BearerAuth
// @Param id path string true "声明ID"
// @Param limit query int false "数量" default(5)
// @Success 200 {object} response.Response{data=[]similarity.Match}
// @Router /api/v1/claims/{id}/similar [get]
func (h *Handler) SimilarClaims(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	matches, err := h.claims.SimilarClaims(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, matches)
}
