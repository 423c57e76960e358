package engine

import "pose-feedback/internal/models"

// ResolveSide picks the body side facing the sensor by comparing shoulder
// depth. Returns SideUndetermined when either shoulder depth is unavailable.
func ResolveSide(frame *models.PoseFrame) models.Side {
	left := frame.Landmark(models.LeftShoulder)
	right := frame.Landmark(models.RightShoulder)

	if !left.HasDepth() || !right.HasDepth() {
		return models.SideUndetermined
	}
	if left.Z < right.Z {
		return models.SideLeft
	}
	return models.SideRight
}

// sideLandmarks are the landmark indices read for one side of the body
type sideLandmarks struct {
	// Upper anchor of the body-scale span. The calibration threshold was
	// tuned against indices 3 and 4, so those are used rather than 7 and 8.
	Ear      models.LandmarkIndex
	Shoulder models.LandmarkIndex
	Elbow    models.LandmarkIndex
	Wrist    models.LandmarkIndex
	Hip      models.LandmarkIndex
}

var (
	leftLandmarks = sideLandmarks{
		Ear:      models.LeftEyeOuter,
		Shoulder: models.LeftShoulder,
		Elbow:    models.LeftElbow,
		Wrist:    models.LeftWrist,
		Hip:      models.LeftHip,
	}
	rightLandmarks = sideLandmarks{
		Ear:      models.RightEyeInner,
		Shoulder: models.RightShoulder,
		Elbow:    models.RightElbow,
		Wrist:    models.RightWrist,
		Hip:      models.RightHip,
	}
)

func landmarksFor(side models.Side) sideLandmarks {
	if side == models.SideLeft {
		return leftLandmarks
	}
	return rightLandmarks
}
