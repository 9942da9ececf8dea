package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit = 300 // requests per minute
	DefaultBurstSize = 30

	sweepInterval = 5 * time.Minute
	idleTTL       = 10 * time.Minute
)

// RateLimiter keeps one token bucket per caller. Callers are keyed by token
// subject, falling back to the remote address. Idle buckets are swept.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	perMinute int
	limit     rate.Limit
	burst     int

	stopCh   chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Decision is the outcome of one Take
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed
	Reset      time.Time     // when the bucket is full again
}

// NewRateLimiter creates a new RateLimiter with default settings
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter allowing requestsPerMinute
// with bursts of burstSize
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	if burstSize < 1 {
		burstSize = 1
	}
	rl := &RateLimiter{
		buckets:   make(map[string]*bucket),
		perMinute: requestsPerMinute,
		limit:     rate.Limit(float64(requestsPerMinute) / 60),
		burst:     burstSize,
		stopCh:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Take consumes a token for key when one is available
func (r *RateLimiter) Take(key string) Decision {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	d := Decision{Allowed: b.limiter.AllowN(now, 1)}
	tokens := b.limiter.TokensAt(now)
	d.Remaining = int(math.Max(0, math.Floor(tokens)))
	d.Reset = now.Add(r.refill(float64(r.burst) - tokens))
	if !d.Allowed {
		d.RetryAfter = r.refill(1 - tokens)
	}
	return d
}

// Allow reports whether key may make one more request
func (r *RateLimiter) Allow(key string) bool {
	return r.Take(key).Allowed
}

// refill is how long the bucket needs to gain n tokens
func (r *RateLimiter) refill(n float64) time.Duration {
	if n <= 0 || r.limit <= 0 {
		return 0
	}
	return time.Duration(n / float64(r.limit) * float64(time.Second))
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.mu.Lock()
			for key, b := range r.buckets {
				if now.Sub(b.lastSeen) > idleTTL {
					delete(r.buckets, key)
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

func callerKey(c echo.Context) string {
	if sub := GetSubject(c); sub != "" {
		return "sub:" + sub
	}
	return "ip:" + c.RealIP()
}

// RateLimitMiddleware returns an Echo middleware that applies rate limiting.
// It runs after Authenticate so the subject is known.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := callerKey(c)
			d := rl.Take(key)

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if d.Allowed {
				return next(c)
			}

			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			header.Set("Retry-After", strconv.Itoa(retryAfter))

			log.Warn().Str("caller", key).Int("retry_after", retryAfter).Msg("Rate limit exceeded")
			return rateLimitError(c, fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
		}
	}
}
