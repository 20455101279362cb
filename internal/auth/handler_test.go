package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/internal/memstore"
	"github.com/clipai/backend/internal/middleware"
	"github.com/clipai/backend/internal/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	jwt := auth.NewJWTService("test-secret", 1)
	h := auth.NewHandler(memstore.New().Users(), jwt, nil)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", middleware.JWT(jwt), h.Me)
	return r
}

func do(r *gin.Engine, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestRegisterLoginMe(t *testing.T) {
	r := newRouter()
	reg := map[string]string{"name": "Ann", "email": "Ann@Example.com", "password": "correct-horse"}

	w, env := do(r, http.MethodPost, "/auth/register", reg, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register code = %d body = %s", w.Code, w.Body)
	}
	var tok auth.TokenResponse
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		t.Fatal(err)
	}
	if tok.Token == "" || tok.User.Email != "ann@example.com" {
		t.Fatalf("unexpected register response: %+v", tok)
	}
	if tok.User.Plan != models.PlanFree || tok.User.ClipsLimit != models.DefaultClipsLimit || tok.User.ClipsUsed != 0 {
		t.Fatalf("unexpected quota fields: %+v", tok.User)
	}

	w, _ = do(r, http.MethodPost, "/auth/register", reg, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register code = %d, want 409", w.Code)
	}

	w, _ = do(r, http.MethodPost, "/auth/login", map[string]string{"email": "ann@example.com", "password": "wrong-password"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login code = %d, want 401", w.Code)
	}

	w, env = do(r, http.MethodPost, "/auth/login", map[string]string{"email": "ANN@example.com", "password": "correct-horse"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login code = %d body = %s", w.Code, w.Body)
	}
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		t.Fatal(err)
	}

	w, env = do(r, http.MethodGet, "/auth/me", nil, tok.Token)
	if w.Code != http.StatusOK {
		t.Fatalf("me code = %d", w.Code)
	}
	var me models.UserPublic
	_ = json.Unmarshal(env.Data, &me)
	if me.ID != tok.User.ID || me.Name != "Ann" {
		t.Fatalf("me = %+v", me)
	}
}

func TestRegister_Validation(t *testing.T) {
	r := newRouter()
	tests := []struct {
		name string
		body map[string]string
	}{
		{"short password", map[string]string{"name": "A", "email": "a@b.co", "password": "short"}},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "long-enough"}},
		{"blank name", map[string]string{"name": "   ", "email": "a@b.co", "password": "long-enough"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(r, http.MethodPost, "/auth/register", tt.body, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("code = %d, want 400", w.Code)
			}
		})
	}
}
