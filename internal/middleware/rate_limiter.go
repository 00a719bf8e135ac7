package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type peerAddrKey struct{}

// PeerAddr records the address of the TCP peer before RealIP rewrites
// RemoteAddr from forwarded headers. It must be mounted ahead of RealIP.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerAddrKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter implements token bucket rate limiting per client IP
type RateLimiter struct {
	limiters sync.Map // ip -> *limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the given burst
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
		now:   time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	v, ok := rl.limiters.Load(key)
	if !ok {
		v, _ = rl.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)})
	}
	entry := v.(*limiterEntry)
	entry.lastSeen.Store(rl.now().UnixNano())
	return entry.limiter
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	n := 0
	rl.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Sweep forgets the keys not seen for longer than idle and returns how many
// were removed
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := rl.now().Add(-idle).UnixNano()
	removed := 0
	rl.limiters.Range(func(k, v any) bool {
		if v.(*limiterEntry).lastSeen.Load() < cutoff {
			rl.limiters.Delete(k)
			removed++
		}
		return true
	})
	return removed
}

// Run sweeps idle keys every interval until ctx is done
func (rl *RateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(idle); n > 0 {
				log.Debug().Int("removed", n).Int("tracked", rl.Len()).Msg("Rate limiter swept")
			}
		}
	}
}

// Middleware limits requests by the connecting peer. Forwarded headers are
// ignored when PeerAddr ran first, so a client cannot pick its own bucket.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !rl.Allow(key) {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.burst))
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","code":"RATE_LIMITED"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if peer, ok := r.Context().Value(peerAddrKey{}).(string); ok && peer != "" {
		addr = peer
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
