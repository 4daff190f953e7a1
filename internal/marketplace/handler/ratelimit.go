package handler

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// bucketSet holds one token bucket per key. Buckets idle for 10 minutes are
// dropped every 5 minutes until ctx is cancelled.
type bucketSet struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket
}

func newBucketSet(ctx context.Context, limit rate.Limit, burst int) *bucketSet {
	s := &bucketSet{limit: limit, burst: burst, buckets: make(map[string]*bucket)}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s.mu.Lock()
			for key, b := range s.buckets {
				if time.Since(b.lastSeen) > 10*time.Minute {
					delete(s.buckets, key)
				}
			}
			s.mu.Unlock()
		}
	}()
	return s
}

func (s *bucketSet) allow(key string) bool {
	s.mu.Lock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = time.Now()
	s.mu.Unlock()
	return b.limiter.Allow()
}

func rejectTooMany(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
}

// RateLimiter returns a Gin middleware that enforces a per-IP token bucket
// over the whole API. rps is the steady-state requests per second and burst
// the maximum burst size.
func RateLimiter(ctx context.Context, rps, burst int) gin.HandlerFunc {
	set := newBucketSet(ctx, rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !set.allow(c.ClientIP()) {
			rejectTooMany(c, time.Second)
			return
		}
		c.Next()
	}
}

// AuthAttemptLimiter slows password guessing: each client IP gets
// perMinute register/login attempts per minute, all of which may be spent
// at once.
func AuthAttemptLimiter(ctx context.Context, perMinute int) gin.HandlerFunc {
	set := newBucketSet(ctx, rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	return func(c *gin.Context) {
		if !set.allow(c.ClientIP()) {
			rejectTooMany(c, time.Minute)
			return
		}
		c.Next()
	}
}
