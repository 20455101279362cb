// Package captions suggests short social captions for clips.
package captions

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// MaxContextLength bounds the free-text context a caller may supply.
const MaxContextLength = 500

// ErrEmptySuggestion is returned when a backend produces no usable caption.
var ErrEmptySuggestion = errors.New("empty caption suggestion")

// Suggester produces a caption for a free-text hint describing the clip.
type Suggester interface {
	Suggest(ctx context.Context, hint string) (string, error)
}

var templates = []string{
	"POV: you finally found what you were looking for 👀 %s #viral #fyp #creator",
	"The secret nobody teaches you ✨ Save this! %s #content #creator",
	"Wait for the last second... 😱 This changes everything. %s #trending #shorts",
}

// TemplateSuggester picks one of a fixed set of caption templates.
type TemplateSuggester struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplateSuggester creates a TemplateSuggester. seed 0 picks a random seed.
func NewTemplateSuggester(seed uint64) *TemplateSuggester {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &TemplateSuggester{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Suggest implements Suggester. It never fails.
func (s *TemplateSuggester) Suggest(_ context.Context, hint string) (string, error) {
	s.mu.Lock()
	tpl := templates[s.rng.IntN(len(templates))]
	s.mu.Unlock()
	out := fmt.Sprintf(tpl, strings.TrimSpace(hint))
	return strings.Join(strings.Fields(out), " "), nil
}

// FallbackSuggester tries Primary and falls back to Secondary on error or empty output.
type FallbackSuggester struct {
	Primary   Suggester
	Secondary Suggester
	Logger    *zap.Logger
}

// Suggest implements Suggester.
func (f *FallbackSuggester) Suggest(ctx context.Context, hint string) (string, error) {
	if f.Primary != nil {
		caption, err := f.Primary.Suggest(ctx, hint)
		if err == nil && strings.TrimSpace(caption) != "" {
			return caption, nil
		}
		if err == nil {
			err = ErrEmptySuggestion
		}
		if f.Logger != nil {
			f.Logger.Warn("caption backend failed, using fallback", zap.Error(err))
		}
	}
	return f.Secondary.Suggest(ctx, hint)
}
