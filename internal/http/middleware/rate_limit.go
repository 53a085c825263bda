package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

// NewLimiterStore выбирает хранилище счётчиков: redis, если клиент задан, иначе память процесса.
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStore(), nil
	}
	return redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "labour-market:limiter"})
}

// RateLimitMiddleware ограничивает число запросов с одного пользователя (или IP до входа).
func RateLimitMiddleware(store limiter.Store, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 30
	}
	if period <= 0 {
		period = time.Minute
	}
	instance := limiter.New(store, limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		key := c.ClientIP()
		if actor, ok := ActorFrom(c); ok {
			key = actor.UserID.String()
		}

		state, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			// Отказ хранилища лимитов не блокирует запросы.
			logger.Log.WithError(err).Warn("rate limit: хранилище недоступно")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", state.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", state.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", state.Reset))

		if state.Reached {
			response.Error(c, apperror.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
