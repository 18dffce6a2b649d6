package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitMax    = 10
	rateLimitWindow = 60 * time.Second
)

// localWindow is the in-process fallback counter used when redis is down.
// Fixed-window semantics match the redis path.
type localWindow struct {
	mu      sync.Mutex
	counts  map[string]int
	resetAt time.Time
}

func (w *localWindow) hit(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.After(w.resetAt) {
		w.counts = map[string]int{}
		w.resetAt = now.Add(rateLimitWindow)
	}
	w.counts[key]++
	return w.counts[key]
}

// RateLimit enforces a fixed window of rateLimitMax requests per
// rateLimitWindow per client. Counters live in redis so the limit holds
// across api replicas; when redis is unreachable the middleware degrades to a
// per-process counter instead of rejecting traffic.
func RateLimit(rdb *redis.Client) gin.HandlerFunc {
	fallback := &localWindow{counts: map[string]int{}}

	return func(c *gin.Context) {
		key := clientKey(c)

		count, err := redisHit(c.Request.Context(), rdb, key)
		if err != nil {
			count = fallback.hit(key)
		}

		if count > rateLimitMax {
			c.Header("Retry-After", fmt.Sprintf("%d", int(rateLimitWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Error(http.StatusTooManyRequests, "Rate limit exceeded, try again later"))
			return
		}
		c.Next()
	}
}

func redisHit(ctx context.Context, rdb *redis.Client, key string) (int, error) {
	if rdb == nil {
		return 0, redis.ErrClosed
	}

	redisKey := "ratelimit:" + key
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// NX keeps the window anchored at the first request instead of sliding
	pipe.ExpireNX(ctx, redisKey, rateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// clientKey prefers the authenticated user so shared NATs do not starve each
// other; unauthenticated requests fall back to the client IP.
func clientKey(c *gin.Context) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}
