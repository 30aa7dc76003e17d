package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("Strict tier on verify", func(t *testing.T) {
		rl, stop := NewRateLimiter()
		defer stop()
		handler := rl.Middleware(okHandler())

		for i := 0; i < burstStrict; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/payment/verify", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/payment/verify", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Too Many Requests", body["message"])
	})

	t.Run("Tiers have separate quotas", func(t *testing.T) {
		rl, stop := NewRateLimiter()
		defer stop()
		handler := rl.Middleware(okHandler())

		for i := 0; i < burstStrict; i++ {
			req := httptest.NewRequest(http.MethodPost, "/order", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Device header does not reset quota", func(t *testing.T) {
		rl, stop := NewRateLimiter()
		defer stop()
		handler := rl.Middleware(okHandler())

		for i := 0; i < burstStrict; i++ {
			req := httptest.NewRequest(http.MethodPost, "/verify", nil)
			req.RemoteAddr = "10.0.0.3:1234"
			req.Header.Set("X-Device-ID", fmt.Sprintf("device-%d", i))
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodPost, "/verify", nil)
		req.RemoteAddr = "10.0.0.3:5678"
		req.Header.Set("X-Device-ID", "device-fresh")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("Other clients keep their quota", func(t *testing.T) {
		rl, stop := NewRateLimiter()
		defer stop()
		handler := rl.Middleware(okHandler())

		for i := 0; i <= burstStrict; i++ {
			req := httptest.NewRequest(http.MethodPost, "/verify", nil)
			req.RemoteAddr = "10.0.0.4:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodPost, "/verify", nil)
		req.RemoteAddr = "10.0.0.5:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Cleanup drops idle visitors", func(t *testing.T) {
		rl, stop := NewRateLimiter()
		defer stop()

		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.getVisitor("ip:1:general", limitGeneral, burstGeneral)
		now = now.Add(visitorTTL + time.Second)
		rl.getVisitor("ip:2:general", limitGeneral, burstGeneral)

		rl.cleanup()

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.NotContains(t, rl.visitors, "ip:1:general")
		assert.Contains(t, rl.visitors, "ip:2:general")
	})
}

func TestResolveRateTier(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodPost, "/api/payment/order", "strict"},
		{http.MethodPost, "/verify", "strict"},
		{http.MethodGet, "/api/payment/order/order_abc", "general"},
		{http.MethodGet, "/metrics", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			_, _, tier := resolveRateTier(httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, tier)
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Run("Panic becomes 500", func(t *testing.T) {
		panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		assert.NotPanics(t, func() { Recovery(panicking).ServeHTTP(w, req) })
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"internal server error"}`, w.Body.String())
	})

	t.Run("Passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		Recovery(okHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
