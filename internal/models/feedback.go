package models

import "time"

// Feedback labels delivered to the UI
const (
	LabelCorrect   = "Correct"
	LabelIncorrect = "Incorrect"
)

// Overlay colors for the highlighted arm
const (
	ColorGreen = "green"
	ColorRed   = "red"
)

// DefaultStrokeWidth is the line width for arm overlay segments
const DefaultStrokeWidth = 3

// Shoulder callout drawn with an Incorrect verdict
const (
	HighlightLabel    = "Adjust Shoulder"
	HighlightHalfSize = 20 // px from center to each box edge
)

// Signals holds the raw per-frame distances in pixels
type Signals struct {
	Guard float64 // |elbow.y - nose.y|
	Span  float64 // |ear.y - hip.y|
}

// ClassificationResult is the per-frame verdict. Never mutated after creation.
type ClassificationResult struct {
	Correct       bool
	Ratio         float64 // Smoothed guard / smoothed span, 0 when undefined
	Defined       bool    // False when the span was zero or degenerate
	Side          Side
	SmoothedGuard float64
	SmoothedSpan  float64
}

// DrawCommand tells the renderer which arm segment to stroke and how
type DrawCommand struct {
	Points      [3]PixelPoint `json:"points"` // shoulder, elbow, wrist
	Color       string        `json:"color"`
	StrokeWidth int           `json:"stroke_width"`
	Highlight   *Highlight    `json:"highlight,omitempty"`
}

// Highlight is a labelled box centered on a joint
type Highlight struct {
	Center   PixelPoint `json:"center"`
	HalfSize int        `json:"half_size"`
	Label    string     `json:"label"`
}

// FeedbackEvent is the output of one processed frame
type FeedbackEvent struct {
	SessionID     string      `json:"session_id"`
	Seq           uint64      `json:"seq"`
	Timestamp     time.Time   `json:"timestamp"`
	Label         string      `json:"label"`
	Side          Side        `json:"side"`
	Ratio         *float64    `json:"ratio,omitempty"`
	SmoothedGuard float64     `json:"smoothed_guard"`
	SmoothedSpan  float64     `json:"smoothed_span"`
	Draw          DrawCommand `json:"draw"`
}

// IsCorrect reports whether the event carries the Correct label
func (e *FeedbackEvent) IsCorrect() bool {
	return e.Label == LabelCorrect
}
