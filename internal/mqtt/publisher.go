package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"pose-feedback/internal/models"
)

// Publisher handles MQTT publishing from channels
type Publisher struct {
	client mqtt.Client

	// Input channels (read by publisher, written by the services)
	FeedbackChan chan *models.FeedbackEvent
	SummaryChan  chan *models.SessionSummary

	feedbackTopic string // e.g., "feedback/{session_id}"
	summaryTopic  string // e.g., "feedback/{session_id}/summary"
	qos           byte
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	FeedbackTopic string
	SummaryTopic  string
	QoS           byte
}

// NewPublisher creates a new MQTT publisher with channels
func NewPublisher(
	client mqtt.Client,
	config PublisherConfig,
	feedbackChan chan *models.FeedbackEvent,
	summaryChan chan *models.SessionSummary,
) *Publisher {
	return &Publisher{
		client:        client,
		FeedbackChan:  feedbackChan,
		SummaryChan:   summaryChan,
		feedbackTopic: config.FeedbackTopic,
		summaryTopic:  config.SummaryTopic,
		qos:           config.QoS,
	}
}

// Start publishes feedback and summaries until the context is cancelled or
// both channels are closed
func (p *Publisher) Start(ctx context.Context) {
	slog.Info("mqtt publisher: starting")

	feedback, summaries := p.FeedbackChan, p.SummaryChan
	for feedback != nil || summaries != nil {
		select {
		case <-ctx.Done():
			slog.Info("mqtt publisher: context cancelled, shutting down")
			return

		case ev, ok := <-feedback:
			if !ok {
				feedback = nil
				continue
			}
			if err := p.publishFeedback(ev); err != nil {
				slog.Error("mqtt publisher: feedback not published", "session_id", ev.SessionID, "error", err)
			}

		case sum, ok := <-summaries:
			if !ok {
				summaries = nil
				continue
			}
			if err := p.publishSummary(sum); err != nil {
				slog.Error("mqtt publisher: summary not published", "session_id", sum.SessionID, "error", err)
			}
		}
	}

	slog.Info("mqtt publisher: channels closed, shutting down")
}

func (p *Publisher) publishFeedback(ev *models.FeedbackEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}
	return p.publish(formatTopic(p.feedbackTopic, ev.SessionID), payload)
}

func (p *Publisher) publishSummary(sum *models.SessionSummary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("failed to marshal session summary: %w", err)
	}
	if err := p.publish(formatTopic(p.summaryTopic, sum.SessionID), payload); err != nil {
		return err
	}
	slog.Info("mqtt publisher: session summary published",
		"session_id", sum.SessionID, "processed", sum.Processed, "correct", sum.Correct)
	return nil
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// formatTopic replaces the {session_id} placeholder with the session id
func formatTopic(topicPattern, sessionID string) string {
	return strings.ReplaceAll(topicPattern, "{session_id}", sessionID)
}
