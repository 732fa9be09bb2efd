package markets

import (
	"log"
	"math"
)

// Logger receives non-fatal normalization warnings (malformed array fields,
// unparseable prices). Tests may swap it for a silent logger.
var Logger = log.Default()

// OnWarn, when set, is called once per normalization warning. Used to
// count degraded records without coupling this package to a metrics
// registry.
var OnWarn func()

// ClampProbability clamps x to [0,1]. NaN and -Inf clamp to 0, +Inf to 1.
func ClampProbability(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// sanitizeNumber zeroes NaN and Inf so they never propagate into
// normalized output.
func sanitizeNumber(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func warnf(format string, args ...interface{}) {
	Logger.Printf("[NORM] "+format, args...)
	if OnWarn != nil {
		OnWarn()
	}
}
