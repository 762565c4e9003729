package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const MsgTooManyRequests = "Too many requests. Please try again later."

// Limiter decides whether one more request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// idleTTL is how long an untouched bucket is kept. A bucket idle for a full
// minute has refilled, so dropping it changes nothing.
const idleTTL = 10 * time.Minute

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// MemoryLimiter keeps a token bucket per key in process. Idle buckets are
// swept at most once per idleTTL.
type MemoryLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryLimiter allows perMinute requests per key, refilled evenly. perMinute must be positive.
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	return &MemoryLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	if now.Sub(m.lastSweep) >= idleTTL {
		for k, v := range m.visitors {
			if now.Sub(v.seen) >= idleTTL {
				delete(m.visitors, k)
			}
		}
		m.lastSweep = now
	}
	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.seen = now
	m.mu.Unlock()

	return v.limiter.AllowN(now, 1), nil
}

func (m *MemoryLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}

// RedisLimiter is a fixed one-minute window shared by every instance.
type RedisLimiter struct {
	client    *redis.Client
	perMinute int64
	now       func() time.Time
}

func NewRedisLimiter(client *redis.Client, perMinute int, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, perMinute: int64(perMinute), now: now}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := r.now().Unix() / 60
	k := fmt.Sprintf("ratelimit:%s:%d", key, window)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= r.perMinute, nil
}

// RateLimit throttles per client IP within scope. A limiter error lets the
// request through.
func RateLimit(l Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			logger.From(c).WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			respond.Abort(c, http.StatusTooManyRequests, MsgTooManyRequests)
			return
		}
		c.Next()
	}
}
