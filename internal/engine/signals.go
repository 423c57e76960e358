package engine

import (
	"pose-feedback/internal/aggregator"
	"pose-feedback/internal/models"
)

// chin is approximated by the nose landmark
const chin = models.Nose

// ExtractSignals computes the guard (elbow to chin) and span (ear to hip)
// vertical distances in pixels for the given side.
func ExtractSignals(frame *models.PoseFrame, side models.Side) (models.Signals, error) {
	if side == models.SideUndetermined {
		return models.Signals{}, ErrUndeterminedSide
	}
	idx := landmarksFor(side)

	guard, ok := aggregator.VerticalDistance(frame.Landmark(idx.Elbow), frame.Landmark(chin), frame.Height)
	if !ok {
		return models.Signals{}, ErrIncompleteLandmarks
	}
	span, ok := aggregator.VerticalDistance(frame.Landmark(idx.Ear), frame.Landmark(idx.Hip), frame.Height)
	if !ok {
		return models.Signals{}, ErrIncompleteLandmarks
	}

	return models.Signals{Guard: guard, Span: span}, nil
}
