package httpapi

import (
	"math"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

var (
	limiterMu sync.RWMutex
	limiter   *rate.Limiter
)

// SetRateLimit limits capability requests to rps per second with the given
// burst. rps <= 0 disables limiting; burst <= 0 defaults to ceil(rps).
func SetRateLimit(rps float64, burst int) {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	if rps <= 0 {
		limiter = nil
		return
	}
	if burst <= 0 {
		burst = int(math.Ceil(rps))
	}
	limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// rateLimit rejects requests over the configured rate with 429.
func rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiterMu.RLock()
		l := limiter
		limiterMu.RUnlock()
		if l != nil && !l.Allow() {
			IncrementBackpressure("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
