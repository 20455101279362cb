package generation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Segment is one candidate clip interval returned by media analysis.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score int     `json:"score"`
}

// Analysis is the media analysis result for a stored video.
type Analysis struct {
	Duration float64   `json:"duration"`
	Segments []Segment `json:"clips"`
}

// Analyzer derives the duration and scored clip intervals for a stored video handle.
type Analyzer interface {
	Analyze(ctx context.Context, handle string) (*Analysis, error)
}

// SimulatedAnalyzerConfig configures SimulatedAnalyzer.
type SimulatedAnalyzerConfig struct {
	Duration   float64       // reported video duration in seconds
	ClipLength float64       // length of every clip in seconds
	MinClips   int           // inclusive
	MaxClips   int           // inclusive
	Latency    time.Duration // simulated processing time
	Seed       uint64
}

// SimulatedAnalyzer stands in for real inference: back-to-back fixed-length clips from t=0,
// capped so the last clip ends inside the video, scored uniformly in [70,100).
type SimulatedAnalyzer struct {
	cfg SimulatedAnalyzerConfig
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedAnalyzer creates a SimulatedAnalyzer, filling zero fields with defaults.
func NewSimulatedAnalyzer(cfg SimulatedAnalyzerConfig) *SimulatedAnalyzer {
	if cfg.Duration <= 0 {
		cfg.Duration = 240
	}
	if cfg.ClipLength <= 0 {
		cfg.ClipLength = 45
	}
	if cfg.MinClips <= 0 {
		cfg.MinClips = 3
	}
	if cfg.MaxClips < cfg.MinClips {
		cfg.MaxClips = cfg.MinClips
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &SimulatedAnalyzer{cfg: cfg, rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Analyze implements Analyzer.
func (a *SimulatedAnalyzer) Analyze(ctx context.Context, handle string) (*Analysis, error) {
	if handle == "" {
		return nil, fmt.Errorf("empty media handle")
	}
	if a.cfg.Latency > 0 {
		t := time.NewTimer(a.cfg.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	fit := int(a.cfg.Duration / a.cfg.ClipLength)
	if fit == 0 {
		return nil, fmt.Errorf("video shorter than one %.0fs clip", a.cfg.ClipLength)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	count := a.cfg.MinClips + a.rng.IntN(a.cfg.MaxClips-a.cfg.MinClips+1)
	if count > fit {
		count = fit
	}
	out := &Analysis{Duration: a.cfg.Duration, Segments: make([]Segment, count)}
	for i := range out.Segments {
		out.Segments[i] = Segment{
			Start: float64(i) * a.cfg.ClipLength,
			End:   float64(i+1) * a.cfg.ClipLength,
			Score: 70 + a.rng.IntN(30),
		}
	}
	return out, nil
}
