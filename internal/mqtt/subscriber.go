package mqtt

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"pose-feedback/internal/codec"
	"pose-feedback/internal/models"
)

// Subscriber handles MQTT subscriptions and writes messages to channels
type Subscriber struct {
	client mqtt.Client

	// Output channels (written by subscriber, read by the session service)
	DetectionChan chan *models.DetectionResult
	ControlChan   chan *models.SessionControl

	landmarksTopic string
	controlTopic   string
	qos            byte
	sendTimeout    time.Duration
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	LandmarksTopic string // e.g., "pose/+/landmarks"
	ControlTopic   string // e.g., "pose/+/control"
	QoS            byte
	SendTimeout    time.Duration // How long a handler waits on a full channel before dropping
}

// NewSubscriber creates a new MQTT subscriber with channels
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	detectionChan chan *models.DetectionResult,
	controlChan chan *models.SessionControl,
) *Subscriber {
	timeout := config.SendTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Subscriber{
		client:         client,
		DetectionChan:  detectionChan,
		ControlChan:    controlChan,
		landmarksTopic: config.LandmarksTopic,
		controlTopic:   config.ControlTopic,
		qos:            config.QoS,
		sendTimeout:    timeout,
	}
}

// SubscribeAll subscribes to the landmark and control topics
func (s *Subscriber) SubscribeAll() error {
	if s.landmarksTopic != "" {
		if err := s.subscribeToTopic(s.landmarksTopic, s.handleLandmarks); err != nil {
			return fmt.Errorf("failed to subscribe to landmarks topic: %w", err)
		}
		slog.Info("mqtt subscriber: subscribed", "topic", s.landmarksTopic)
	}

	if s.controlTopic != "" {
		if err := s.subscribeToTopic(s.controlTopic, s.handleControl); err != nil {
			return fmt.Errorf("failed to subscribe to control topic: %w", err)
		}
		slog.Info("mqtt subscriber: subscribed", "topic", s.controlTopic)
	}

	return nil
}

func (s *Subscriber) subscribeToTopic(topic string, handler mqtt.MessageHandler) error {
	token := s.client.Subscribe(topic, s.qos, handler)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// handleLandmarks decodes a detection and forwards it to DetectionChan.
// The session id in the topic wins over the one in the payload.
func (s *Subscriber) handleLandmarks(client mqtt.Client, msg mqtt.Message) {
	det, err := codec.DecodeDetection(msg.Payload())
	if err != nil {
		slog.Warn("mqtt subscriber: dropping detection", "topic", msg.Topic(), "error", err)
		return
	}

	sessionID := extractSessionID(s.landmarksTopic, msg.Topic())
	if sessionID == "" {
		sessionID = det.SessionID
	}
	if sessionID == "" {
		slog.Warn("mqtt subscriber: no session id in topic or payload", "topic", msg.Topic())
		return
	}
	if det.SessionID != "" && det.SessionID != sessionID {
		slog.Debug("mqtt subscriber: payload session id differs from topic",
			"topic_session", sessionID, "payload_session", det.SessionID)
	}
	det.SessionID = sessionID
	if det.Timestamp.IsZero() {
		det.Timestamp = time.Now()
	}

	select {
	case s.DetectionChan <- &det:
	case <-time.After(s.sendTimeout):
		slog.Warn("mqtt subscriber: detection channel full, dropping frame",
			"session_id", sessionID, "seq", det.Seq)
	}
}

// handleControl decodes a start/stop message and forwards it to ControlChan
func (s *Subscriber) handleControl(client mqtt.Client, msg mqtt.Message) {
	ctl, err := codec.DecodeControl(msg.Payload())
	if err != nil {
		slog.Warn("mqtt subscriber: dropping control message", "topic", msg.Topic(), "error", err)
		return
	}

	if id := extractSessionID(s.controlTopic, msg.Topic()); id != "" {
		ctl.SessionID = id
	}
	if ctl.SessionID == "" {
		slog.Warn("mqtt subscriber: no session id in topic or payload", "topic", msg.Topic())
		return
	}
	if ctl.Timestamp.IsZero() {
		ctl.Timestamp = time.Now()
	}

	slog.Info("mqtt subscriber: control received",
		"session_id", ctl.SessionID, "action", ctl.Action, "sport", ctl.Sport)

	select {
	case s.ControlChan <- &ctl:
	case <-time.After(s.sendTimeout):
		slog.Warn("mqtt subscriber: control channel full, dropping message", "session_id", ctl.SessionID)
	}
}

// extractSessionID returns the topic level matched by the single-level
// wildcard in pattern.
// Example: ("pose/+/landmarks", "pose/abc/landmarks") -> "abc"
// Returns "" if the pattern has no wildcard or the topic does not match.
func extractSessionID(pattern, topic string) string {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")
	if len(patternParts) != len(topicParts) {
		return ""
	}

	id := ""
	for i, p := range patternParts {
		switch p {
		case "+":
			if id == "" {
				id = topicParts[i]
			}
		default:
			if p != topicParts[i] {
				return ""
			}
		}
	}
	return id
}
