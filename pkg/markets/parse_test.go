package markets

import (
	"math"
	"testing"
)

func TestClampProbability(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"in range", 0.65, 0.65},
		{"zero", 0, 0},
		{"one", 1, 1},
		{"negative", -5, 0},
		{"above one", 5, 1},
		{"slightly above", 1.2, 1},
		{"slightly below", -0.5, 0},
		{"nan", math.NaN(), 0},
		{"positive inf", math.Inf(1), 1},
		{"negative inf", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampProbability(tt.input); got != tt.want {
				t.Errorf("ClampProbability(%f) = %f, want %f", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeNumber(t *testing.T) {
	if got := sanitizeNumber(math.NaN()); got != 0 {
		t.Errorf("sanitizeNumber(NaN) = %f", got)
	}
	if got := sanitizeNumber(math.Inf(1)); got != 0 {
		t.Errorf("sanitizeNumber(+Inf) = %f", got)
	}
	if got := sanitizeNumber(42.5); got != 42.5 {
		t.Errorf("sanitizeNumber(42.5) = %f", got)
	}
}
