package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/green-credits/internal/api/middleware"
	"github.com/d60-Lab/green-credits/pkg/response"
)

type quizAttemptRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// SubmitQuiz 提交答题，全对获得临时加成
// @Summary 提交答题
// @Tags 小测
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "小测ID"
// @Param request body quizAttemptRequest true "答案（选项下标）"
// @Success 200 {object} response.Response{data=service.QuizResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/quizzes/{id}/attempts [post]
func (h *Handler) SubmitQuiz(c *gin.Context) {
	var req quizAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.quizzes.Submit(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Answers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
