package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/green-credits/internal/service"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

func TestError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidActionType, http.StatusBadRequest},
		{fmt.Errorf("%w: answers", service.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusForbidden},
		{service.ErrClaimNotFound, http.StatusNotFound},
		{service.ErrDuplicateClaim, http.StatusConflict},
		{service.ErrClaimNotPending, http.StatusConflict},
		{service.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", service.ErrEvidenceUpload, errors.New("s3 down")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	assert.Equal(t, 1, logs.FilterMessage("internal error").Len())
	assert.Equal(t, 1, logs.FilterMessage("evidence upload failed").Len())
}
