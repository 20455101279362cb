package generation

import (
	"errors"
	"math"
	"testing"

	"github.com/clipai/backend/internal/apperrors"
)

func TestValidateAnalysis(t *testing.T) {
	seg := func(start, end float64, score int) Segment { return Segment{Start: start, End: end, Score: score} }

	tests := []struct {
		name    string
		a       *Analysis
		wantErr bool
	}{
		{"touching ends", &Analysis{Duration: 90, Segments: []Segment{seg(0, 45, 80), seg(45, 90, 90)}}, false},
		{"gaps allowed", &Analysis{Duration: 200, Segments: []Segment{seg(10, 20, 0), seg(100, 150, 100)}}, false},
		{"nil", nil, true},
		{"zero duration", &Analysis{Duration: 0, Segments: []Segment{seg(0, 1, 50)}}, true},
		{"nan duration", &Analysis{Duration: math.NaN(), Segments: []Segment{seg(0, 1, 50)}}, true},
		{"no segments", &Analysis{Duration: 60}, true},
		{"too many", &Analysis{Duration: 700, Segments: []Segment{
			seg(0, 10, 1), seg(10, 20, 1), seg(20, 30, 1), seg(30, 40, 1), seg(40, 50, 1), seg(50, 60, 1), seg(60, 70, 1),
		}}, true},
		{"negative start", &Analysis{Duration: 60, Segments: []Segment{seg(-1, 10, 50)}}, true},
		{"past end", &Analysis{Duration: 60, Segments: []Segment{seg(30, 61, 50)}}, true},
		{"degenerate", &Analysis{Duration: 60, Segments: []Segment{seg(10, 10, 50)}}, true},
		{"score high", &Analysis{Duration: 60, Segments: []Segment{seg(0, 10, 101)}}, true},
		{"score low", &Analysis{Duration: 60, Segments: []Segment{seg(0, 10, -1)}}, true},
		{"overlap", &Analysis{Duration: 60, Segments: []Segment{seg(0, 30, 50), seg(29, 40, 50)}}, true},
		{"out of order", &Analysis{Duration: 60, Segments: []Segment{seg(30, 40, 50), seg(0, 10, 50)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnalysis(tt.a, DefaultMaxClips)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAnalysis() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}
