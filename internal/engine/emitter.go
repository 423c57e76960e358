package engine

import "pose-feedback/internal/models"

// Emit maps a classification to a feedback label and an arm overlay for the
// resolved side. An Incorrect verdict also boxes the shoulder when it is
// visible. It holds no state.
func Emit(res models.ClassificationResult, frame *models.PoseFrame) models.FeedbackEvent {
	idx := landmarksFor(res.Side)

	ev := models.FeedbackEvent{
		Seq:           frame.Seq,
		Timestamp:     frame.Timestamp,
		Label:         models.LabelIncorrect,
		Side:          res.Side,
		SmoothedGuard: res.SmoothedGuard,
		SmoothedSpan:  res.SmoothedSpan,
		Draw: models.DrawCommand{
			Points: [3]models.PixelPoint{
				frame.Pixel(idx.Shoulder),
				frame.Pixel(idx.Elbow),
				frame.Pixel(idx.Wrist),
			},
			Color:       models.ColorRed,
			StrokeWidth: models.DefaultStrokeWidth,
		},
	}

	if res.Defined {
		ratio := res.Ratio
		ev.Ratio = &ratio
	}
	if res.Correct {
		ev.Label = models.LabelCorrect
		ev.Draw.Color = models.ColorGreen
	} else if shoulder := ev.Draw.Points[0]; shoulder.Present {
		ev.Draw.Highlight = &models.Highlight{
			Center:   shoulder,
			HalfSize: models.HighlightHalfSize,
			Label:    models.HighlightLabel,
		}
	}

	return ev
}
