package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRouter(p *Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(p), Secure(), RateLimiter(p))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowList(t *testing.T) {
	p := NewPolicy([]string{"http://app.local"}, 100, time.Minute)
	r := newRouter(p)

	w := get(r, "http://app.local")
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "http://app.local" {
		t.Fatalf("allowed origin rejected: %d %v", w.Code, w.Header())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}

	if w := get(r, "http://evil.local"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", w.Code)
	}

	p.Update([]string{"http://evil.local"}, 100, time.Minute)
	if w := get(r, "http://evil.local"); w.Code != http.StatusOK {
		t.Fatalf("reloaded origin should pass, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	p := NewPolicy(nil, 2, time.Hour)
	r := newRouter(p)

	for i := 0; i < 2; i++ {
		if w := get(r, ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	if w := get(r, ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	// 新参数让旧的限流器失效
	p.Update(nil, 5, time.Hour)
	if w := get(r, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after reload, got %d", w.Code)
	}
}

func TestPolicyDefaults(t *testing.T) {
	p := NewPolicy([]string{"*"}, 0, 0)
	if !p.AllowOrigin("http://anything") {
		t.Fatalf("wildcard should allow any origin")
	}
	_, burst, gen := p.limits()
	if burst != 1 || gen != 1 {
		t.Fatalf("unexpected limits burst=%d gen=%d", burst, gen)
	}
	p.Update([]string{"*"}, 1, time.Minute)
	if _, _, g := p.limits(); g != gen {
		t.Fatalf("same limits should keep the generation")
	}
}
