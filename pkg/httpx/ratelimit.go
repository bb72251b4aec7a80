package httpx

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/DSAshv/urbanAssist/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters for an endpoint class.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Rate limit profiles per endpoint sensitivity.
var (
	// StrictLimit guards credential endpoints against brute force.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit covers authenticated write operations.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 30, Window: time.Minute, Burst: 30}

	// LenientLimit covers authenticated reads.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 120, Window: time.Minute, Burst: 120}
)

// KeyExtractor derives the bucket key for a request (IP, user id, ...).
type KeyExtractor func(*http.Request) string

// IPKey extracts the client IP, honouring proxy headers.
func IPKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type limiterPool struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (p *limiterPool) get(key string) *rate.Limiter {
	if l, ok := p.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(p.rate, p.burst)
	actual, _ := p.limiters.LoadOrStore(key, l)
	p.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters so ephemeral keys don't accumulate.
// A limiter with a full token bucket hasn't been used for at least a window.
func (p *limiterPool) maybeCleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.lastCleanup) < 5*time.Minute {
		return
	}
	p.lastCleanup = time.Now()

	p.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(p.burst) {
			p.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware limits requests per key according to cfg.
func RateLimitMiddleware(cfg RateLimitConfig, key KeyExtractor) Middleware {
	pool := &limiterPool{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := pool.get(k)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"key", k,
					"endpoint", r.URL.Path,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]any{
					"success": false,
					"message": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
