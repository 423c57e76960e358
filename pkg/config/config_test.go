package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pose/+/landmarks", cfg.MQTTTopicLandmarks)
	assert.Equal(t, "feedback/{session_id}", cfg.MQTTTopicFeedback)
	assert.Equal(t, 0.14, cfg.EngineThreshold)
	assert.Equal(t, 5, cfg.EngineWindowSize)
	assert.False(t, cfg.EngineReuseLastSide)
	assert.True(t, cfg.SessionAutoStart)
	assert.Equal(t, 30*time.Second, cfg.SessionIdleTimeout)
	assert.Empty(t, cfg.ClickHouseAddr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENGINE_THRESHOLD", "0.2")
	t.Setenv("ENGINE_WINDOW_SIZE", "8")
	t.Setenv("ENGINE_REUSE_LAST_SIDE", "true")
	t.Setenv("SESSION_IDLE_TIMEOUT", "1m")
	t.Setenv("MQTT_QOS", "1")

	cfg, err := Load()
	require.NoError(t, err)

	eng := cfg.Engine()
	assert.Equal(t, 0.2, eng.Threshold)
	assert.Equal(t, 8, eng.WindowSize)
	assert.True(t, eng.ReuseLastSide)
	assert.Equal(t, time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, byte(1), cfg.MQTTQoS)
}

func TestLoadUnparseableFallsBack(t *testing.T) {
	t.Setenv("ENGINE_WINDOW_SIZE", "five")
	t.Setenv("SESSION_IDLE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.EngineWindowSize)
	assert.Equal(t, 30*time.Second, cfg.SessionIdleTimeout)
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, "threshold: 0.12\nwindow_size: 7\n")
	t.Setenv("ENGINE_PROFILE", path)
	t.Setenv("ENGINE_WINDOW_SIZE", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.12, cfg.EngineThreshold, "profile value")
	assert.Equal(t, 3, cfg.EngineWindowSize, "env beats profile")
	assert.Equal(t, 0.0, cfg.EngineMinVisibility, "unset keeps default")
}

func TestLoadProfileErrors(t *testing.T) {
	t.Setenv("ENGINE_PROFILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	_, err = LoadProfile(writeProfile(t, "threshold: [1, 2"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ENGINE_THRESHOLD", "0"},
		{"ENGINE_WINDOW_SIZE", "0"},
		{"ENGINE_MIN_VISIBILITY", "2"},
		{"MQTT_QOS", "3"},
		{"MQTT_QOS", "258"},
		{"MQTT_QOS", "-1"},
		{"MQTT_TOPIC_FEEDBACK", "feedback/all"},
		{"SESSION_IDLE_TIMEOUT", "-1s"},
		{"FEEDBACK_CHANNEL_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
