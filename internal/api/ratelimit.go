package api

import (
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientLimiter hands out one token bucket per client address.
type ClientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	skip     []string
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows perSecond sustained requests and burst extra per
// client. Paths in skip bypass the limit.
func NewClientLimiter(perSecond float64, burst int, skip ...string) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limiters: make(map[string]*clientEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     10 * time.Minute,
		skip:     skip,
	}
}

func (l *ClientLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Drop idle clients.
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.limiters, k)
		}
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Handler rejects requests over the client's budget with 429 and a
// Retry-After header.
func (l *ClientLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slices.Contains(l.skip, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r)
		now := time.Now()
		res := l.get(key, now).ReserveN(now, 1)
		if !res.OK() {
			tooMany(w, 1)
			return
		}
		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)
			zap.L().Debug("api: rate limit exceeded", zap.String("client", key), zap.String("path", r.URL.Path))
			tooMany(w, int(math.Ceil(delay.Seconds())))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tooMany(w http.ResponseWriter, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// clientKey is the request's remote host. RealIP middleware has already
// folded proxy headers into RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
