package engine

import (
	"errors"
	"fmt"
	"math"

	"pose-feedback/internal/models"
)

// Per-frame outcomes that skip the frame. None of them end the session.
var (
	ErrNoPoseDetected      = errors.New("no pose detected")
	ErrMalformedFrame      = errors.New("malformed frame")
	ErrUndeterminedSide    = errors.New("facing side undetermined")
	ErrIncompleteLandmarks = errors.New("incomplete landmarks")
)

// Ingest validates a raw detection into a PoseFrame.
// Landmarks with missing or non-finite x/y, or with a visibility below
// minVisibility, are kept in place but marked not present.
func Ingest(det models.DetectionResult, minVisibility float64) (models.PoseFrame, error) {
	var frame models.PoseFrame

	if len(det.Landmarks) == 0 {
		return frame, ErrNoPoseDetected
	}
	if len(det.Landmarks) != models.NumLandmarks {
		return frame, fmt.Errorf("%w: got %d landmarks, expected %d",
			ErrMalformedFrame, len(det.Landmarks), models.NumLandmarks)
	}
	if det.Width <= 0 || det.Height <= 0 {
		return frame, fmt.Errorf("%w: invalid frame size %dx%d", ErrMalformedFrame, det.Width, det.Height)
	}

	frame.Seq = det.Seq
	frame.Timestamp = det.Timestamp
	frame.Width = det.Width
	frame.Height = det.Height

	for i, raw := range det.Landmarks {
		frame.Landmarks[i] = convertLandmark(raw, minVisibility)
	}

	return frame, nil
}

func convertLandmark(raw *models.RawLandmark, minVisibility float64) models.Landmark {
	lm := models.Landmark{Z: math.NaN(), Visibility: math.NaN()}
	if raw == nil || raw.X == nil || raw.Y == nil || !finite(*raw.X) || !finite(*raw.Y) {
		return lm
	}

	lm.X = *raw.X
	lm.Y = *raw.Y
	if raw.Z != nil {
		lm.Z = *raw.Z
	}
	if raw.Visibility != nil {
		lm.Visibility = *raw.Visibility
		if lm.Visibility < minVisibility {
			return lm
		}
	}
	lm.Present = true
	return lm
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
