package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/green-credits/config"
	"github.com/d60-Lab/green-credits/pkg/response"
)

const maxTrackedUsers = 10000

// UserRateLimiter 按用户的令牌桶；最近活跃的用户保留在 LRU 中
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache
	limit    rate.Limit
	burst    int
}

func NewUserRateLimiter(cfg config.RateLimitConfig) *UserRateLimiter {
	cache, _ := lru.New(maxTrackedUsers)
	burst := cfg.SubmitBurst
	if burst <= 0 {
		burst = 1
	}
	return &UserRateLimiter{limiters: cache, limit: rate.Limit(cfg.SubmitPerSecond), burst: burst}
}

// Allow reports whether the user may make another request now.
func (l *UserRateLimiter) Allow(userID string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.limiters.Get(userID); ok {
		return v.(*rate.Limiter).Allow()
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(userID, lim)
	return lim.Allow()
}

// Middleware must run after Auth.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !l.Allow(key) {
			response.TooManyRequests(c, "too many submissions, slow down")
			return
		}
		c.Next()
	}
}
