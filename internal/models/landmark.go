package models

import "math"

// LandmarkIndex identifies a point in the 33-landmark pose topology
type LandmarkIndex int

// Pose landmark indices following the MediaPipe BlazePose convention
const (
	Nose LandmarkIndex = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	NumLandmarks = 33
)

var landmarkNames = [NumLandmarks]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// String returns the snake_case landmark name
func (i LandmarkIndex) String() string {
	if i < 0 || int(i) >= NumLandmarks {
		return "unknown"
	}
	return landmarkNames[i]
}

// Landmark is one tracked skeletal point.
// X and Y are normalized to the frame size, Z is relative depth where
// smaller means closer to the sensor. Z and Visibility are NaN when the
// estimator did not report them.
type Landmark struct {
	X          float64
	Y          float64
	Z          float64
	Visibility float64
	Present    bool
}

// HasDepth reports whether the landmark carries a usable depth value
func (l Landmark) HasDepth() bool {
	return l.Present && !math.IsNaN(l.Z) && !math.IsInf(l.Z, 0)
}
