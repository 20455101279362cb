package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// aviHeader is the smallest prefix recognised as an AVI container.
func aviHeader() []byte {
	b := []byte("RIFF\x00\x00\x00\x00AVI LIST")
	return append(b, bytes.Repeat([]byte{0}, 64)...)
}

func TestDetectVideo_AVI(t *testing.T) {
	payload := append(aviHeader(), bytes.Repeat([]byte("x"), 5000)...)
	sniffed, err := DetectVideo(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("DetectVideo() error = %v", err)
	}
	if sniffed.ContentType != "video/x-msvideo" {
		t.Errorf("ContentType = %s, want video/x-msvideo", sniffed.ContentType)
	}
	if sniffed.Extension != ".avi" {
		t.Errorf("Extension = %s, want .avi", sniffed.Extension)
	}
	replayed, err := io.ReadAll(sniffed.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(replayed, payload) {
		t.Errorf("body replay lost bytes: got %d, want %d", len(replayed), len(payload))
	}
}

func TestDetectVideo_RejectsNonVideo(t *testing.T) {
	_, err := DetectVideo(strings.NewReader("just some text, not a video container"))
	if !errors.Is(err, ErrUnrecognizedFormat) {
		t.Errorf("DetectVideo() error = %v, want ErrUnrecognizedFormat", err)
	}
}

func TestVideoKey_PartitionedByUser(t *testing.T) {
	got := VideoKey(42, "abc", ".mp4")
	if got != "videos/user_42/video_abc.mp4" {
		t.Errorf("VideoKey() = %s", got)
	}
	if got := ClipKey(42, 7, 2); got != "clips/user_42/video_7/clip_2.mp4" {
		t.Errorf("ClipKey() = %s", got)
	}
}

func TestLocal_PutAndURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, nil)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	key := VideoKey(1, "clip", ".mp4")
	handle, err := store.Put(context.Background(), key, "video/mp4", strings.NewReader("data"), 4)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if handle != key {
		t.Errorf("handle = %s, want %s", handle, key)
	}
	got, err := os.ReadFile(filepath.Join(dir, "videos", "user_1", "video_clip.mp4"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("stored = %q", got)
	}
	url, _ := store.URL(context.Background(), key)
	if url != "/uploads/videos/user_1/video_clip.mp4" {
		t.Errorf("URL() = %s", url)
	}
	if err := store.Delete(context.Background(), key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	if _, err := store.Put(context.Background(), "../../etc/passwd", "text/plain", strings.NewReader("x"), 1); err == nil {
		t.Error("Put() accepted a traversal key")
	}
}
