package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Local stores blobs on disk under a root directory. Files are served by the HTTP server under PublicPrefix.
type Local struct {
	root         string
	publicPrefix string
	logger       *zap.Logger
}

// PublicPrefix is the URL prefix local blobs are served from.
const PublicPrefix = "/uploads"

// NewLocal creates a disk-backed blob store rooted at dir.
func NewLocal(dir string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{root: dir, publicPrefix: PublicPrefix, logger: logger}, nil
}

// Root returns the directory blobs are written under.
func (l *Local) Root() string { return l.root }

func (l *Local) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if strings.Contains(key, "..") || clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Put writes body to key. A partially written file is removed on error.
func (l *Local) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	p, err := l.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, readerWithContext(ctx, body))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	l.logger.Debug("local blob stored", zap.String("key", key), zap.Int64("bytes", n), zap.String("content_type", contentType))
	return key, nil
}

// URL returns the public path for key.
func (l *Local) URL(_ context.Context, key string) (string, error) {
	return path.Join(l.publicPrefix, key), nil
}

// Delete removes the blob stored at key.
func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
