package http

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limit bounds the pairing attempts of one client address
type Limit struct {
	Attempts int
	Period   time.Duration
}

// DefaultPairLimit keeps codes from being enumerated from the local network
// while leaving room for typos
var DefaultPairLimit = Limit{Attempts: 5, Period: time.Minute}

// window is a fixed counting window
type window struct {
	count int
	reset time.Time
}

// limiter counts attempts per key in fixed windows
type limiter struct {
	limit Limit
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func newLimiter(limit Limit) *limiter {
	return &limiter{
		limit:   limit,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// allow records an attempt for key. It returns the attempts left and the
// end of the current window.
func (l *limiter) allow(key string) (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, w := range l.windows {
		if !now.Before(w.reset) {
			delete(l.windows, k)
		}
	}

	w, found := l.windows[key]
	if !found {
		w = &window{reset: now.Add(l.limit.Period)}
		l.windows[key] = w
	}
	w.count++

	remaining = l.limit.Attempts - w.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, w.reset, w.count <= l.limit.Attempts
}

// clientKey identifies the caller. RealIP has already rewritten
// RemoteAddr when a proxy header was present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limitPairing rejects pairing attempts over the limit with 429
func (h *Handler) limitPairing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, reset, ok := h.limiter.allow(clientKey(r))

		w.Header().Set("RateLimit-Limit", strconv.Itoa(h.limiter.limit.Attempts))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !ok {
			retryAfter := int(reset.Sub(h.limiter.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.logger.Warn().
				Str("remoteIP", clientKey(r)).
				Int("retryAfter", retryAfter).
				Msg("pairing rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.respondError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Muitas tentativas. Aguarde %d segundos.", retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}
