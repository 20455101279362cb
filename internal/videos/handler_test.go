package videos_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/internal/videos"
)

func TestHandler_Upload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _, _, userID := setup(t, 0, 50)
	h := videos.NewHandler(svc, time.Hour, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { auth.SetIdentity(c, &auth.Claims{UserID: userID}) })
	r.POST("/videos/upload", h.Upload)
	r.GET("/videos", h.List)
	r.GET("/videos/:id", h.Get)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("video", "talk.avi")
	_, _ = fw.Write(aviPayload())
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/videos/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload code = %d body = %s", w.Code, w.Body)
	}

	list, _ := svc.List(context.Background(), userID)
	if len(list) != 1 {
		t.Fatalf("videos = %d, want 1", len(list))
	}

	req = httptest.NewRequest(http.MethodPost, "/videos/upload", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file code = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/videos/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id code = %d, want 400", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/videos/999", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing video code = %d, want 404", w.Code)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestHandler_UploadReadErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _, _, userID := setup(t, 0, 50)
	h := videos.NewHandler(svc, time.Hour, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { auth.SetIdentity(c, &auth.Claims{UserID: userID}) })
	r.POST("/videos/upload", h.Upload)

	// A multipart body whose file part is cut off by the transport.
	var head bytes.Buffer
	mw := multipart.NewWriter(&head)
	fw, _ := mw.CreateFormFile("video", "talk.avi")
	_, _ = fw.Write(aviPayload()[:16])

	tests := []struct {
		name        string
		contentType string
		body        io.Reader
		want        int
	}{
		{"deadline exceeded mid-body", mw.FormDataContentType(), io.MultiReader(bytes.NewReader(head.Bytes()), failingReader{os.ErrDeadlineExceeded}), http.StatusRequestTimeout},
		{"not multipart", "text/plain", bytes.NewReader([]byte("hello")), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/videos/upload", tt.body)
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("code = %d, want %d, body = %s", w.Code, tt.want, w.Body)
			}
		})
	}
	if list, _ := svc.List(context.Background(), userID); len(list) != 0 {
		t.Fatalf("videos = %d, want 0", len(list))
	}
}
