package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/green-credits/internal/service"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: http.StatusForbidden, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: msg})
}

func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, Response{Code: http.StatusConflict, Message: msg})
}

func TooManyRequests(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Code: http.StatusTooManyRequests, Message: msg})
}

// InternalError 不向客户端暴露内部错误细节
func InternalError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
		logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: "internal server error"})
}

// Error 将领域错误映射为 HTTP 状态码
func Error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidActionType),
		errors.Is(err, service.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrClaimNotFound),
		errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, service.ErrAccountNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrDuplicateClaim),
		errors.Is(err, service.ErrAlreadyVoted),
		errors.Is(err, service.ErrClaimNotPending),
		errors.Is(err, service.ErrRewardUnavailable):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, Response{Code: http.StatusUnprocessableEntity, Message: err.Error()})
	case errors.Is(err, service.ErrEvidenceUpload):
		_ = c.Error(err)
		logger.Warn("evidence upload failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, Response{Code: http.StatusBadGateway, Message: service.ErrEvidenceUpload.Error()})
	default:
		InternalError(c, err)
	}
}
