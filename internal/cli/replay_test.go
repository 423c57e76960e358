package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pose-feedback/internal/engine"
	"pose-feedback/internal/models"
	"pose-feedback/internal/services"
)

func f(v float64) *float64 { return &v }

// frameLine encodes a left-facing detection with the given elbow height.
// Height 1000 gives span 100px and guard |elbowY-0.20|*1000 px.
func frameLine(t *testing.T, sessionID string, seq uint64, elbowY float64) string {
	t.Helper()
	lms := make([]*models.RawLandmark, models.NumLandmarks)
	for i := range lms {
		lms[i] = &models.RawLandmark{X: f(0.5), Y: f(0.5), Z: f(0)}
	}
	lms[models.Nose].Y = f(0.20)
	lms[models.LeftElbow].Y = f(elbowY)
	lms[models.LeftEyeOuter].Y = f(0.15)
	lms[models.LeftHip].Y = f(0.25)
	lms[models.LeftShoulder].Z = f(-0.3)
	lms[models.RightShoulder].Z = f(0.1)

	data, err := json.Marshal(models.DetectionResult{
		SessionID: sessionID,
		Seq:       seq,
		Width:     640,
		Height:    1000,
		Landmarks: lms,
	})
	require.NoError(t, err)
	return string(data)
}

func decodeEvents(t *testing.T, out *bytes.Buffer) []models.FeedbackEvent {
	t.Helper()
	var events []models.FeedbackEvent
	dec := json.NewDecoder(out)
	for dec.More() {
		var ev models.FeedbackEvent
		require.NoError(t, dec.Decode(&ev))
		events = append(events, ev)
	}
	return events
}

func TestReplayerProcessesEveryFrame(t *testing.T) {
	input := strings.Join([]string{
		frameLine(t, "", 1, 0.21),
		frameLine(t, "", 2, 0.21),
		`{"seq":3,"width":640,"height":1000,"landmarks":[]}`,
		"",
		"not json",
		frameLine(t, "other", 1, 0.70),
	}, "\n")

	var out bytes.Buffer
	lines := 0
	rp := newReplayer(engine.DefaultConfig(), "default")
	require.NoError(t, rp.Run(context.Background(), strings.NewReader(input), &out, func() { lines++ }))

	assert.Equal(t, 6, lines)

	events := decodeEvents(t, &out)
	require.Len(t, events, 3)
	assert.Equal(t, "default", events[0].SessionID)
	assert.Equal(t, models.LabelCorrect, events[0].Label)
	assert.Equal(t, "other", events[2].SessionID)
	assert.Equal(t, models.LabelIncorrect, events[2].Label)

	sums := rp.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, "default", sums[0].SessionID)
	assert.Equal(t, uint64(3), sums[0].Received)
	assert.Equal(t, uint64(2), sums[0].Processed)
	assert.Equal(t, uint64(1), sums[0].Skipped)
	assert.Equal(t, services.ReasonReplay, sums[0].Reason)
	assert.Equal(t, uint64(1), sums[1].Incorrect)
}

func TestReplayerContinuesPastOutlierFrame(t *testing.T) {
	lines := []string{frameLine(t, "s", 1, 1e306)}
	for seq := uint64(2); seq <= 11; seq++ {
		lines = append(lines, frameLine(t, "s", seq, 0.21))
	}

	var out bytes.Buffer
	rp := newReplayer(engine.DefaultConfig(), "s")
	require.NoError(t, rp.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")), &out, nil))

	events := decodeEvents(t, &out)
	require.Len(t, events, 10)
	for _, ev := range events {
		assert.Equal(t, models.LabelCorrect, ev.Label, "seq %d", ev.Seq)
		assert.InDelta(t, 10.0, ev.SmoothedGuard, 1e-9, "seq %d", ev.Seq)
	}

	sums := rp.Summaries()
	require.Len(t, sums, 1)
	assert.Equal(t, uint64(11), sums[0].Received)
	assert.Equal(t, uint64(10), sums[0].Processed)
	assert.Equal(t, uint64(1), sums[0].Skipped)
}

func TestReplayerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rp := newReplayer(engine.DefaultConfig(), "s")
	err := rp.Run(ctx, strings.NewReader(frameLine(t, "", 1, 0.21)), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunReplayWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frames.jsonl")
	output := filepath.Join(dir, "feedback.jsonl")
	body := frameLine(t, "s1", 1, 0.21) + "\n" + frameLine(t, "s1", 2, 0.21) + "\n"
	require.NoError(t, os.WriteFile(input, []byte(body), 0o644))

	err := runReplay(context.Background(), replayOptions{
		InputPath:  input,
		OutputPath: output,
		NoProgress: true,
	}, engine.DefaultConfig())
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	events := decodeEvents(t, bytes.NewBuffer(data))
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[1].Seq)
}

func TestCountLines(t *testing.T) {
	dir := t.TempDir()
	for body, want := range map[string]int{
		"":          0,
		"a\n":       1,
		"a\nb":      2,
		"a\nb\nc\n": 3,
	} {
		path := filepath.Join(dir, "count.txt")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		got, err := countLines(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%q", body)
	}

	_, err := countLines(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
