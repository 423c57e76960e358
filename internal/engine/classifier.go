package engine

import (
	"math"

	"pose-feedback/internal/models"
)

// DefaultThreshold is the guard/span ratio below which the guard is correct
const DefaultThreshold = 0.14

// minSpan is the smallest span treated as a usable denominator
const minSpan = 1e-9

// Classify compares the smoothed guard/span ratio against threshold.
// The comparison is strict. A zero guard or a degenerate span is Incorrect.
func Classify(smoothedGuard, smoothedSpan, threshold float64, side models.Side) models.ClassificationResult {
	res := models.ClassificationResult{
		Side:          side,
		SmoothedGuard: smoothedGuard,
		SmoothedSpan:  smoothedSpan,
	}

	if !finite(smoothedSpan) || !finite(smoothedGuard) || smoothedSpan < minSpan {
		return res
	}

	res.Ratio = smoothedGuard / smoothedSpan
	res.Defined = !math.IsInf(res.Ratio, 0)
	res.Correct = res.Defined && smoothedGuard != 0 && res.Ratio < threshold
	return res
}
