package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// BurstSize allows temporary bursts above the rate (in-memory only)
	BurstSize int
}

// DefaultRateLimitConfig returns default rate limit settings
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 600,
		WindowDuration:    time.Minute,
		BurstSize:         50,
	}
}

// Limiter decides whether the caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Remaining(ctx context.Context, key string) (int, error)
	Config() RateLimitConfig
}

// RateLimiter is an in-process token bucket limiter
type RateLimiter struct {
	config  RateLimitConfig
	buckets map[string]*bucket
	mu      sync.Mutex
}

type bucket struct {
	tokens     int
	lastUpdate time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		config:  *config,
		buckets: make(map[string]*bucket),
	}
}

func (rl *RateLimiter) capacity() int {
	return rl.config.RequestsPerWindow + rl.config.BurstSize
}

// refill must be called with rl.mu held
func (rl *RateLimiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastUpdate)
	add := int(elapsed.Seconds() * float64(rl.config.RequestsPerWindow) / rl.config.WindowDuration.Seconds())
	if add <= 0 {
		return
	}
	b.tokens += add
	if b.tokens > rl.capacity() {
		b.tokens = rl.capacity()
	}
	b.lastUpdate = now
}

// Allow takes one token for key when available
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity(), lastUpdate: now}
		rl.buckets[key] = b
	}
	rl.refill(b, now)

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Remaining returns the tokens left for key
func (rl *RateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return rl.capacity(), nil
	}
	return b.tokens, nil
}

func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

// Cleanup drops buckets idle for more than two windows
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanup runs Cleanup once per window until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// DistributedRateLimiter is a fixed-window counter in Redis, shared by every
// replica
type DistributedRateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a new Redis-backed rate limiter
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "menuguard:ratelimit"
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		config: *config,
		prefix: prefix,
	}
}

func (rl *DistributedRateLimiter) key(key string) string {
	return rl.prefix + ":" + key
}

// Allow counts the request and reports whether the window still has room
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rl.key(key)

	count, err := rl.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	// The first hit opens the window
	if count == 1 {
		if err := rl.redis.Expire(ctx, redisKey, rl.config.WindowDuration).Err(); err != nil {
			return false, fmt.Errorf("redis error: %w", err)
		}
	}
	return count <= int64(rl.config.RequestsPerWindow), nil
}

// Remaining returns the number of remaining requests in the window
func (rl *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := rl.redis.Get(ctx, rl.key(key)).Int()
	if err == redis.Nil {
		return rl.config.RequestsPerWindow, nil
	}
	if err != nil {
		return 0, err
	}
	remaining := rl.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (rl *DistributedRateLimiter) Config() RateLimitConfig {
	return rl.config
}

// Reset clears the window for a key
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.key(key)).Err()
}

// RateLimitMiddleware throttles requests per principal, or per client IP
// for anonymous callers. Limiter failures let the request through.
type RateLimitMiddleware struct {
	limiter Limiter
	logger  *observability.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter, logger *observability.Logger) *RateLimitMiddleware {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := rateLimitKey(r)
		cfg := m.limiter.Config()

		allowed, err := m.limiter.Allow(ctx, key)
		if err != nil {
			m.logger.WithError(err).WithField("key", key).Warn("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RequestsPerWindow))
		if !allowed {
			retryAfter := cfg.WindowDuration.Seconds()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","retry_after":` + fmt.Sprintf("%.0f", retryAfter) + `}`))
			return
		}

		if remaining, err := m.limiter.Remaining(ctx, key); err == nil {
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		}
		next.ServeHTTP(w, r)
	})
}

func rateLimitKey(r *http.Request) string {
	if p := GetPrincipal(r.Context()); p != nil {
		return "user:" + p.Username
	}
	return "ip:" + getClientIP(r)
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
