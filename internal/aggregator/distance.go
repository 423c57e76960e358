package aggregator

import (
	"math"

	"pose-feedback/internal/models"
)

// VerticalDistance returns the absolute difference of the de-normalized y
// coordinates of two landmarks, in pixels.
// Returns false if either landmark is absent or the result is not finite.
func VerticalDistance(a, b models.Landmark, frameHeight int) (float64, bool) {
	if !a.Present || !b.Present {
		return 0, false
	}
	y1 := a.Y * float64(frameHeight)
	y2 := b.Y * float64(frameHeight)
	d := math.Abs(y2 - y1)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}
