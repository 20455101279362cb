package generation

import (
	"math"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/models"
)

// DefaultMaxClips bounds how many clips one generation run may create.
const DefaultMaxClips = 6

// ValidateAnalysis enforces the interval policy on analyzer output: a positive duration,
// between 1 and maxClips segments ordered by start, each inside [0, duration], non-degenerate,
// scored within [MinAIScore, MaxAIScore], and pairwise disjoint (touching ends are allowed).
func ValidateAnalysis(a *Analysis, maxClips int) error {
	if a == nil {
		return apperrors.Validation("empty analysis")
	}
	if !finite(a.Duration) || a.Duration <= 0 {
		return apperrors.Validation("invalid duration %v", a.Duration)
	}
	n := len(a.Segments)
	if n == 0 {
		return apperrors.Validation("analysis produced no clips")
	}
	if n > maxClips {
		return apperrors.Validation("analysis produced %d clips, max %d", n, maxClips)
	}
	prevEnd := 0.0
	for i, s := range a.Segments {
		if !finite(s.Start) || !finite(s.End) {
			return apperrors.Validation("clip %d: non-finite bounds", i+1)
		}
		if s.Start < 0 || s.End > a.Duration {
			return apperrors.Validation("clip %d: [%v,%v] outside [0,%v]", i+1, s.Start, s.End, a.Duration)
		}
		if s.End <= s.Start {
			return apperrors.Validation("clip %d: degenerate interval [%v,%v]", i+1, s.Start, s.End)
		}
		if s.Score < models.MinAIScore || s.Score > models.MaxAIScore {
			return apperrors.Validation("clip %d: score %d out of range", i+1, s.Score)
		}
		if i > 0 && s.Start < prevEnd {
			return apperrors.Validation("clip %d: overlaps or precedes clip %d", i+1, i)
		}
		prevEnd = s.End
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
