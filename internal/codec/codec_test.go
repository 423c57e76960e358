package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"pose-feedback/internal/models"
)

func f(v float64) *float64 { return &v }

func sampleDetection() models.DetectionResult {
	lms := make([]*models.RawLandmark, models.NumLandmarks)
	lms[models.Nose] = &models.RawLandmark{X: f(0.5), Y: f(0.2), Z: f(-0.1), Visibility: f(0.99)}
	lms[models.LeftShoulder] = &models.RawLandmark{X: f(0.4), Y: f(0.35)}
	return models.DetectionResult{
		SessionID: "abc",
		Seq:       42,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Width:     1280,
		Height:    720,
		Landmarks: lms,
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatJSON, Detect([]byte(`{"seq":1}`)))
	assert.Equal(t, FormatJSON, Detect([]byte("  \n{}")))
	assert.Equal(t, FormatUnknown, Detect(nil))
	assert.Equal(t, FormatUnknown, Detect([]byte("hello")))

	packed, err := msgpack.Marshal(map[string]int{"seq": 1})
	require.NoError(t, err)
	assert.Equal(t, FormatMsgpack, Detect(packed))
}

func TestDecodeDetectionJSON(t *testing.T) {
	payload := []byte(`{
		"session_id": "abc",
		"seq": 7,
		"timestamp": "2024-03-01T12:00:00Z",
		"width": 640,
		"height": 480,
		"landmarks": [{"x": 0.5, "y": 0.25, "z": -0.2, "visibility": 0.9}, null, {"x": 0.1}]
	}`)

	det, err := DecodeDetection(payload)
	require.NoError(t, err)

	assert.Equal(t, "abc", det.SessionID)
	assert.Equal(t, uint64(7), det.Seq)
	assert.Equal(t, 640, det.Width)
	require.Len(t, det.Landmarks, 3)
	require.NotNil(t, det.Landmarks[0])
	assert.Equal(t, 0.25, *det.Landmarks[0].Y)
	assert.Nil(t, det.Landmarks[1])
	assert.Nil(t, det.Landmarks[2].Y)
}

func TestDecodeDetectionNoPose(t *testing.T) {
	for _, payload := range []string{
		`{"session_id":"abc","width":640,"height":480}`,
		`{"session_id":"abc","width":640,"height":480,"landmarks":null}`,
		`{"session_id":"abc","width":640,"height":480,"landmarks":[]}`,
	} {
		det, err := DecodeDetection([]byte(payload))
		require.NoError(t, err, payload)
		assert.Empty(t, det.Landmarks, payload)
	}
}

func TestDecodeDetectionMsgpack(t *testing.T) {
	want := sampleDetection()

	payload, err := msgpack.Marshal(want)
	require.NoError(t, err)
	require.Equal(t, FormatMsgpack, Detect(payload))

	got, err := DecodeDetection(payload)
	require.NoError(t, err)

	assert.Equal(t, want.SessionID, got.SessionID)
	assert.Equal(t, want.Seq, got.Seq)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	require.Len(t, got.Landmarks, models.NumLandmarks)
	assert.Equal(t, 0.2, *got.Landmarks[models.Nose].Y)
	assert.Nil(t, got.Landmarks[models.LeftShoulder].Z)
	assert.Nil(t, got.Landmarks[models.RightHip])
}

func TestDecodeDetectionErrors(t *testing.T) {
	_, err := DecodeDetection(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = DecodeDetection([]byte("0.5,0.2"))
	assert.Error(t, err)

	_, err = DecodeDetection([]byte(`{"seq": "not a number"`))
	assert.Error(t, err)
}

func TestDecodeControl(t *testing.T) {
	ctl, err := DecodeControl([]byte(`{"action":"START"}`))
	require.NoError(t, err)
	assert.Equal(t, models.ActionStart, ctl.Action)
	assert.Equal(t, models.DefaultSport, ctl.Sport)

	ctl, err = DecodeControl([]byte(`{"action":"stop","sport":"Running"}`))
	require.NoError(t, err)
	assert.Equal(t, models.ActionStop, ctl.Action)
	assert.Equal(t, "running", ctl.Sport)

	_, err = DecodeControl([]byte(`{"action":"pause"}`))
	assert.Error(t, err)
}
