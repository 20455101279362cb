package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/auth"
)

type countingLimiter struct {
	hits map[string]int
	err  error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.hits[key]++
	return l.hits[key] <= limit, nil
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"user_id": auth.UserID(c)}) })
	return r
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	limiter := &countingLimiter{hits: map[string]int{}}
	r := newRouter(RateLimit(limiter, "login", 2, zap.NewNop()))

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 200 429]", codes)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	r := newRouter(RateLimit(limiter, "login", 1, zap.NewNop()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", w.Code)
	}
}

func TestJWT(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	token, err := svc.Generate(42, "a@b.co")
	if err != nil {
		t.Fatal(err)
	}
	r := newRouter(JWT(svc))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("code = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMemoryLimiter_ResetsEachWindow(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow(ctx, "register:1.2.3.4", 3, time.Minute)
		if !ok {
			t.Fatalf("hit %d rejected", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "register:1.2.3.4", 3, time.Minute); ok {
		t.Fatal("4th hit allowed")
	}
	if ok, _ := l.Allow(ctx, "register:5.6.7.8", 3, time.Minute); !ok {
		t.Fatal("other client limited")
	}
	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "register:1.2.3.4", 3, time.Minute); !ok {
		t.Fatal("limit did not reset in new window")
	}
	if len(l.counts) != 1 {
		t.Fatalf("stale counters kept: %d", len(l.counts))
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name       string
		allowed    string
		method     string
		origin     string
		wantOrigin string
		wantVary   bool
		wantCode   int
	}{
		{"wildcard", "*", http.MethodGet, "https://app.example.com", "*", false, http.StatusOK},
		{"listed origin", "https://app.example.com/, http://localhost:3000", http.MethodGet, "https://app.example.com", "https://app.example.com", true, http.StatusOK},
		{"unlisted origin", "http://localhost:3000", http.MethodGet, "https://evil.example.com", "", false, http.StatusOK},
		{"preflight", "http://localhost:3000", http.MethodOptions, "http://localhost:3000", "http://localhost:3000", true, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.allowed))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			if (w.Header().Get("Vary") == "Origin") != tt.wantVary {
				t.Errorf("vary = %q", w.Header().Get("Vary"))
			}
			if tt.wantOrigin != "" && w.Header().Get("Access-Control-Expose-Headers") != "Retry-After" {
				t.Errorf("expose headers = %q", w.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}
