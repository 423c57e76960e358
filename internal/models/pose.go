package models

import (
	"fmt"
	"time"
)

// Side is the half of the body presented toward the sensor
type Side int

const (
	SideUndetermined Side = iota
	SideLeft
	SideRight
)

// String returns the lowercase side name used on the wire
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "undetermined"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "left":
		*s = SideLeft
	case "right":
		*s = SideRight
	case "undetermined", "":
		*s = SideUndetermined
	default:
		return fmt.Errorf("unknown side %q", text)
	}
	return nil
}

// RawLandmark is a landmark as reported by the pose estimator.
// Pointer fields distinguish a missing value from zero.
type RawLandmark struct {
	X          *float64 `json:"x" msgpack:"x"`
	Y          *float64 `json:"y" msgpack:"y"`
	Z          *float64 `json:"z,omitempty" msgpack:"z,omitempty"`
	Visibility *float64 `json:"visibility,omitempty" msgpack:"visibility,omitempty"`
}

// DetectionResult is one frame of pose-estimator output
type DetectionResult struct {
	SessionID string         `json:"session_id" msgpack:"session_id"`
	Seq       uint64         `json:"seq" msgpack:"seq"`
	Timestamp time.Time      `json:"timestamp" msgpack:"timestamp"`
	Width     int            `json:"width" msgpack:"width"`   // Source frame width in pixels
	Height    int            `json:"height" msgpack:"height"` // Source frame height in pixels
	Landmarks []*RawLandmark `json:"landmarks" msgpack:"landmarks"`
}

// PoseFrame is a validated set of 33 landmarks with the source frame size
type PoseFrame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Landmarks [NumLandmarks]Landmark
}

// Landmark returns the landmark at index i
func (f *PoseFrame) Landmark(i LandmarkIndex) Landmark {
	return f.Landmarks[i]
}

// PixelPoint is a de-normalized 2-D position in the source frame
type PixelPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Present bool    `json:"present"`
}

// Pixel de-normalizes landmark i to pixel coordinates
func (f *PoseFrame) Pixel(i LandmarkIndex) PixelPoint {
	l := f.Landmarks[i]
	if !l.Present {
		return PixelPoint{}
	}
	return PixelPoint{
		X:       l.X * float64(f.Width),
		Y:       l.Y * float64(f.Height),
		Present: true,
	}
}
