/*
Package limiter provides per-IP rate limiting for connection handshakes and
sensitive REST endpoints.

It uses the token bucket algorithm (rate.Limiter) per client IP and runs a
background sweep that drops limiters whose buckets have refilled, keeping the
map bounded.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"wirechat/internal/pkg/errs"
	"wirechat/internal/pkg/logx"
	"wirechat/internal/pkg/resp"

	"golang.org/x/time/rate"
)

// sweepInterval is how often idle limiters are reclaimed.
const sweepInterval = 3 * time.Minute

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	mu sync.RWMutex

	// limits maps client IP to its rate.Limiter.
	limits map[string]*rate.Limiter

	// r is the sustained allowed rate in events per second.
	r rate.Limit

	// b is the burst size of each bucket.
	b int
}

// NewIPRateLimiter creates an IPRateLimiter with the given rate and burst and
// starts the background sweep goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.sweepIdle()

	return i
}

// GetLimiter returns the limiter for the given IP, creating one on first use.
// Double-checked locking keeps creation race-free without serializing reads.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// sweepIdle periodically removes limiters whose buckets are full again.
func (i *IPRateLimiter) sweepIdle() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		removed := 0
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
				removed++
			}
		}
		remaining := len(i.limits)
		i.mu.Unlock()

		logx.Info("Rate limiter sweep finished", "removed", removed, "remaining", remaining)
	}
}

// ClientIP extracts the client IP from a request's RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware rejects requests exceeding the per-IP limit with HTTP 429.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.GetLimiter(ClientIP(r)).Allow() {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
