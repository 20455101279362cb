package generation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimulatedAnalyzer_ClipCountWithinBounds(t *testing.T) {
	a := NewSimulatedAnalyzer(SimulatedAnalyzerConfig{Duration: 600, ClipLength: 45, MinClips: 3, MaxClips: 6, Seed: 1})
	for i := 0; i < 50; i++ {
		got, err := a.Analyze(context.Background(), "videos/user_1/video_x.mp4")
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if n := len(got.Segments); n < 3 || n > 6 {
			t.Fatalf("segments = %d, want 3..6", n)
		}
		if err := ValidateAnalysis(got, DefaultMaxClips); err != nil {
			t.Fatalf("simulated output rejected: %v", err)
		}
	}
}

func TestSimulatedAnalyzer_ShortVideo(t *testing.T) {
	a := NewSimulatedAnalyzer(SimulatedAnalyzerConfig{Duration: 30, ClipLength: 45, Seed: 1})
	if _, err := a.Analyze(context.Background(), "k"); err == nil {
		t.Fatal("expected error for video shorter than one clip")
	}
}

func TestSimulatedAnalyzer_HonorsContext(t *testing.T) {
	a := NewSimulatedAnalyzer(SimulatedAnalyzerConfig{Latency: time.Minute, Seed: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := a.Analyze(ctx, "k")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
