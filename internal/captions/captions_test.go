package captions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubSuggester struct {
	caption string
	err     error
	calls   int
}

func (s *stubSuggester) Suggest(context.Context, string) (string, error) {
	s.calls++
	return s.caption, s.err
}

func TestTemplateSuggester_IncludesContext(t *testing.T) {
	s := NewTemplateSuggester(1)
	for i := 0; i < 10; i++ {
		got, err := s.Suggest(context.Background(), "  morning routine  ")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(got, "morning routine") || !strings.Contains(got, "#") {
			t.Fatalf("caption = %q", got)
		}
		if strings.Contains(got, "  ") {
			t.Fatalf("caption has doubled spaces: %q", got)
		}
	}
	got, _ := s.Suggest(context.Background(), "")
	if strings.TrimSpace(got) == "" {
		t.Fatal("empty context produced empty caption")
	}
}

func TestFallbackSuggester(t *testing.T) {
	tests := []struct {
		name          string
		primary       *stubSuggester
		want          string
		wantSecondary bool
	}{
		{"primary ok", &stubSuggester{caption: "from model"}, "from model", false},
		{"primary error", &stubSuggester{err: errors.New("429")}, "fallback", true},
		{"primary blank", &stubSuggester{caption: "   "}, "fallback", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secondary := &stubSuggester{caption: "fallback"}
			f := &FallbackSuggester{Primary: tt.primary, Secondary: secondary, Logger: zap.NewNop()}
			got, err := f.Suggest(context.Background(), "x")
			if err != nil || got != tt.want {
				t.Fatalf("Suggest = %q, %v; want %q", got, err, tt.want)
			}
			if (secondary.calls > 0) != tt.wantSecondary {
				t.Fatalf("secondary calls = %d", secondary.calls)
			}
		})
	}
}

func TestHandler_Suggest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ai/caption", NewHandler(&stubSuggester{caption: "hello #fyp"}, nil).Suggest)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ai/caption", strings.NewReader(`{"context":"cats"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", w.Code, w.Body)
	}
	var env struct {
		Data SuggestResponse `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if env.Data.Caption != "hello #fyp" {
		t.Fatalf("caption = %q", env.Data.Caption)
	}

	r2 := gin.New()
	r2.POST("/ai/caption", NewHandler(&stubSuggester{err: errors.New("down")}, nil).Suggest)
	w = httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ai/caption", strings.NewReader(`{}`)))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing backend code = %d, want 503", w.Code)
	}
}
