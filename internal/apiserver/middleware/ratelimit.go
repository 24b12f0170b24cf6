package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

// RateLimit limits requests per client IP. rps of zero disables the
// middleware entirely.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}

		limiters := sync.Map{} // client IP -> *cachedLimiter

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			limiter := getOrCreateLimiter(&limiters, ip, rps, burst, 5*time.Minute)
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func getOrCreateLimiter(limiters *sync.Map, key string, rps float64, burst int, ttl time.Duration) *rate.Limiter {
	if v, ok := limiters.Load(key); ok {
		cached := v.(*cachedLimiter)
		if time.Now().Before(cached.expiresAt) {
			return cached.limiter
		}
		// expired, need to create new
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	limiters.Store(key, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(ttl),
	})
	return limiter
}
