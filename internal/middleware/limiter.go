package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"ishop-be/internal/logger"
	"ishop-be/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Order creation and payment verification (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and tier.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter starts a limiter and its idle-bucket sweeper. Call stop to end the sweeper.
func NewRateLimiter() (rl *RateLimiter, stop func()) {
	rl = &RateLimiter{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}

	done := make(chan struct{})
	go rl.cleanupLoop(done)

	var once sync.Once
	return rl, func() { once.Do(func() { close(done) }) }
}

// getVisitor retrieves or creates a rate limiter for the given key.
func (rl *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		rl.visitors[key] = &visitor{limiter, rl.now()}
		return limiter
	}

	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) cleanupLoop(done <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes idle entries from the visitors map to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, key)
		}
	}
}

// Middleware rejects requests that exceed the bucket for their client and tier.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := resolveRateTier(r)

		// Same client has separate quotas for strict and general actions.
		key := fmt.Sprintf("%s:%s", clientIdentity(r), tier)

		if !rl.getVisitor(key, limit, burst).Allow() {
			logger.FromCtx(r.Context()).Warn("rate limit exceeded",
				zap.String("tier", tier),
				zap.String("path", r.URL.Path),
			)
			utils.WriteJSONError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIdentity keys buckets on the peer address. Client-supplied headers
// are ignored since nothing here is authenticated.
func clientIdentity(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// resolveRateTier determines which rate limit policy applies to the request.
func resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if r.Method == http.MethodPost &&
		(strings.HasSuffix(r.URL.Path, "/order") || strings.HasSuffix(r.URL.Path, "/verify")) {
		return limitStrict, burstStrict, "strict"
	}

	return limitGeneral, burstGeneral, "general"
}
