package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/green-credits/internal/service"
)

// Handler HTTP 处理器，持有各业务服务
type Handler struct {
	claims      *service.ClaimService
	reviews     *service.ReviewService
	ledger      *service.LedgerService
	multipliers *service.MultiplierService
	redemptions *service.RedemptionService
	quizzes     *service.QuizService
}

func NewHandler(
	claims *service.ClaimService,
	reviews *service.ReviewService,
	ledger *service.LedgerService,
	multipliers *service.MultiplierService,
	redemptions *service.RedemptionService,
	quizzes *service.QuizService,
) *Handler {
	return &Handler{
		claims:      claims,
		reviews:     reviews,
		ledger:      ledger,
		multipliers: multipliers,
		redemptions: redemptions,
		quizzes:     quizzes,
	}
}

// pagination 解析 page / page_size，返回 offset, limit
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize, (page - 1) * pageSize
}
