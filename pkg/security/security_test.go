package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"uplook_backend/internal/config"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{AllowedOrigins: []string{"http://localhost:8081/"}, MaxAgeSeconds: 600}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", map[string]string{"Origin": "http://localhost:8081"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8081" {
		t.Errorf("expected allowed origin to be echoed, got %q", got)
	}

	w = serve(r, http.MethodGet, "/x", map[string]string{"Origin": "http://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin for unknown origin, got %q", got)
	}

	w = serve(r, http.MethodOptions, "/x", map[string]string{"Origin": "http://localhost:8081"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Max-Age") != "600" {
		t.Errorf("expected max age 600, got %q", w.Header().Get("Access-Control-Max-Age"))
	}
}

func TestSecure(t *testing.T) {
	r := gin.New()
	r.Use(Secure(true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil)
	if w.Header().Get("X-Frame-Options") != "DENY" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing security headers: %v", w.Header())
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("hsts must not be sent over plain http")
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(RateLimiter(ctx, config.RateLimitConfig{MaxRequests: 2, WindowMinutes: 1, ExemptPaths: []string{"/health"}}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodGet, "/x", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := serve(r, http.MethodGet, "/x", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the burst, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After on 429")
	}

	for i := 0; i < 5; i++ {
		if w := serve(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
			t.Fatalf("exempt path limited on request %d: %d", i, w.Code)
		}
	}
}

func TestIPLimiter_EvictIdle(t *testing.T) {
	l := newIPLimiter(10, time.Minute)
	now := time.Now()
	l.reserve("10.0.0.1", now.Add(-10*time.Minute))
	l.reserve("10.0.0.2", now)

	if n := l.evictIdle(now, 3*time.Minute); n != 1 {
		t.Fatalf("expected 1 evicted visitor, got %d", n)
	}
	if _, ok := l.visitors["10.0.0.2"]; !ok {
		t.Error("active visitor must be kept")
	}
}
