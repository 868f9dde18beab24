package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// FixedWindowLimiter admits up to `limit` requests per key per window. The
// count resets when the window elapses rather than decaying per request, so
// failed logins consume quota like everything else.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewFixedWindowLimiter(limit int, period time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Admit reports whether a request for the key may proceed. On rejection it
// returns how long until the window resets.
func (l *FixedWindowLimiter) Admit(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win, ok := l.windows[key]
	if !ok || now.Sub(win.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		return true, 0
	}

	if win.count >= l.limit {
		return false, win.start.Add(l.period).Sub(now)
	}
	win.count++
	return true, 0
}

// Sweep drops windows that have already elapsed to bound memory growth.
func (l *FixedWindowLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, win := range l.windows {
		if now.Sub(win.start) >= l.period {
			delete(l.windows, key)
		}
	}
}

// RateLimit returns middleware that gates requests before any auth logic
// runs. Keys are per client IP; with scope "ip_app" the app secret header is
// folded in so tenants don't share a bucket behind one NAT.
func RateLimit(limit int, period time.Duration, scope string) func(http.Handler) http.Handler {
	limiter := NewFixedWindowLimiter(limit, period)

	// Background sweep so idle keys don't accumulate
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Sweep()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Use X-Real-IP if set (from chi's RealIP middleware), otherwise RemoteAddr
			ip := r.Header.Get("X-Real-IP")
			if ip == "" {
				ip = r.RemoteAddr
			}

			key := ip
			if scope == "ip_app" {
				if secret := r.Header.Get("X-App-Secret"); secret != "" {
					key = ip + "|" + secret
				}
			}

			if ok, retryAfter := limiter.Admit(key); !ok {
				seconds := int(retryAfter.Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
