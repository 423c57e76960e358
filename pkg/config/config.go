package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pose-feedback/internal/engine"
)

type Config struct {
	// MQTT Configuration
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTQoS      byte

	// Topics (+ matches the session id, {session_id} is substituted on publish)
	MQTTTopicLandmarks string
	MQTTTopicControl   string
	MQTTTopicFeedback  string
	MQTTTopicSummary   string

	// ClickHouse Configuration (empty address disables the feedback log)
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	// Engine tuning
	EngineProfile       string
	EngineThreshold     float64
	EngineWindowSize    int
	EngineMinVisibility float64
	EngineReuseLastSide bool

	// Sessions
	SessionAutoStart    bool
	SessionIdleTimeout  time.Duration
	FeedbackChannelSize int

	// Logging
	LogLevel  string
	LogFormat string
}

// Profile is an engine tuning file. Unset fields keep their defaults.
type Profile struct {
	Threshold     *float64 `yaml:"threshold"`
	WindowSize    *int     `yaml:"window_size"`
	MinVisibility *float64 `yaml:"min_visibility"`
	ReuseLastSide *bool    `yaml:"reuse_last_side"`
}

// Load reads .env (if present) and the environment. When ENGINE_PROFILE
// names a YAML file its values replace the built-in engine defaults;
// ENGINE_* variables still take precedence over the profile.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := engine.DefaultConfig()
	profilePath := getEnv("ENGINE_PROFILE", "")
	if profilePath != "" {
		profile, err := LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
		defaults = profile.Apply(defaults)
	}

	qos, err := getEnvQoS("MQTT_QOS", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// MQTT Configuration
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "pose-feedback"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:      qos,

		// Topics
		MQTTTopicLandmarks: getEnv("MQTT_TOPIC_LANDMARKS", "pose/+/landmarks"),
		MQTTTopicControl:   getEnv("MQTT_TOPIC_CONTROL", "pose/+/control"),
		MQTTTopicFeedback:  getEnv("MQTT_TOPIC_FEEDBACK", "feedback/{session_id}"),
		MQTTTopicSummary:   getEnv("MQTT_TOPIC_SUMMARY", "feedback/{session_id}/summary"),

		// ClickHouse Configuration
		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "pose"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),

		// Engine tuning
		EngineProfile:       profilePath,
		EngineThreshold:     getEnvFloat("ENGINE_THRESHOLD", defaults.Threshold),
		EngineWindowSize:    getEnvInt("ENGINE_WINDOW_SIZE", defaults.WindowSize),
		EngineMinVisibility: getEnvFloat("ENGINE_MIN_VISIBILITY", defaults.MinVisibility),
		EngineReuseLastSide: getEnvBool("ENGINE_REUSE_LAST_SIDE", defaults.ReuseLastSide),

		// Sessions
		SessionAutoStart:    getEnvBool("SESSION_AUTO_START", true),
		SessionIdleTimeout:  getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Second),
		FeedbackChannelSize: getEnvInt("FEEDBACK_CHANNEL_SIZE", 100),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadProfile reads an engine tuning file
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse engine profile %s: %w", path, err)
	}
	return &p, nil
}

// Apply overlays the fields set in the profile onto base
func (p *Profile) Apply(base engine.Config) engine.Config {
	if p.Threshold != nil {
		base.Threshold = *p.Threshold
	}
	if p.WindowSize != nil {
		base.WindowSize = *p.WindowSize
	}
	if p.MinVisibility != nil {
		base.MinVisibility = *p.MinVisibility
	}
	if p.ReuseLastSide != nil {
		base.ReuseLastSide = *p.ReuseLastSide
	}
	return base
}

// Engine returns the engine configuration
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Threshold:     c.EngineThreshold,
		WindowSize:    c.EngineWindowSize,
		MinVisibility: c.EngineMinVisibility,
		ReuseLastSide: c.EngineReuseLastSide,
	}
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	if c.MQTTQoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTTQoS)
	}
	if !strings.Contains(c.MQTTTopicFeedback, "{session_id}") {
		return fmt.Errorf("MQTT_TOPIC_FEEDBACK must contain {session_id}, got %q", c.MQTTTopicFeedback)
	}
	if !strings.Contains(c.MQTTTopicSummary, "{session_id}") {
		return fmt.Errorf("MQTT_TOPIC_SUMMARY must contain {session_id}, got %q", c.MQTTTopicSummary)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	if c.FeedbackChannelSize < 1 {
		return fmt.Errorf("FEEDBACK_CHANNEL_SIZE must be >= 1, got %d", c.FeedbackChannelSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("config: failed to parse float, using default", "key", key, "error", err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("config: failed to parse int, using default", "key", key, "error", err)
		return defaultValue
	}
	return intValue
}

// getEnvQoS range-checks before narrowing so 258 is not read as 2
func getEnvQoS(key string, defaultValue byte) (byte, error) {
	value := getEnvInt(key, int(defaultValue))
	if value < 0 || value > 2 {
		return 0, fmt.Errorf("%s must be 0, 1 or 2, got %d", key, value)
	}
	return byte(value), nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("config: failed to parse bool, using default", "key", key, "error", err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("config: failed to parse duration, using default", "key", key, "error", err)
		return defaultValue
	}
	return d
}
