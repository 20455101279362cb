package storage

import (
	"bytes"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many leading bytes are inspected to detect the container format.
const sniffLen = 3072

// AllowedVideoTypes maps accepted container MIME types to their canonical extension.
var AllowedVideoTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/x-msvideo": ".avi",
	"video/webm":      ".webm",
}

// ErrUnrecognizedFormat is returned when the leading bytes are not an accepted video container.
var ErrUnrecognizedFormat = errors.New("unrecognized video container")

// Sniffed is the result of DetectVideo.
type Sniffed struct {
	ContentType string
	Extension   string
	// Body replays the inspected bytes followed by the rest of the input.
	Body io.Reader
}

// DetectVideo inspects the leading bytes of r and reports the container format.
// The original content type header is never trusted.
func DetectVideo(r io.Reader) (*Sniffed, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	for ct, ext := range AllowedVideoTypes {
		if mt.Is(ct) {
			return &Sniffed{
				ContentType: ct,
				Extension:   ext,
				Body:        io.MultiReader(bytes.NewReader(head), r),
			}, nil
		}
	}
	return nil, ErrUnrecognizedFormat
}
