package http

import (
	"net"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/patrickmn/go-cache"
	"github.com/secmon-lab/folio/pkg/utils/errutil"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// clientLimiter keeps one token bucket per client address. Buckets of idle
// clients expire.
type clientLimiter struct {
	rps      rate.Limit
	burst    int
	limiters *cache.Cache
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: cache.New(limiterIdleTTL, 2*limiterIdleTTL),
	}
}

func (l *clientLimiter) allow(key string) bool {
	if v, ok := l.limiters.Get(key); ok {
		limiter := v.(*rate.Limiter)
		l.limiters.Set(key, limiter, cache.DefaultExpiration)
		return limiter.Allow()
	}

	limiter := rate.NewLimiter(l.rps, l.burst)
	if err := l.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// Another request created it first
		if v, ok := l.limiters.Get(key); ok {
			limiter = v.(*rate.Limiter)
		}
	}
	return limiter.Allow()
}

// middleware rejects requests over the limit with 429. A nil limiter passes
// everything through.
func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientAddr(r)) {
			w.Header().Set("Retry-After", "1")
			errutil.HandleHTTP(r.Context(), w, goerr.New("too many chat requests"), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
