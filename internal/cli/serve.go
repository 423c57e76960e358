package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"pose-feedback/internal/database"
	"pose-feedback/internal/models"
	"pose-feedback/internal/mqtt"
	"pose-feedback/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Consume landmarks over MQTT and publish guard feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	slog.Info("starting pose-feedback service", "version", Version)

	// === Optional feedback event log ===
	var recorder services.FeedbackRecorder
	if cfg.ClickHouseAddr != "" {
		db, err := database.NewClickHouseDB(ctx, database.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePass,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		defer db.Close()
		recorder = db
	} else {
		slog.Info("CLICKHOUSE_ADDR not set, feedback events are not recorded")
	}

	// === Channel Creation ===
	// MQTT -> session service
	detectionChan := make(chan *models.DetectionResult, cfg.FeedbackChannelSize)
	controlChan := make(chan *models.SessionControl, 10)
	// session service -> feedback service -> publisher
	feedbackChan := make(chan *models.FeedbackEvent, cfg.FeedbackChannelSize)
	publishChan := make(chan *models.FeedbackEvent, cfg.FeedbackChannelSize)
	summaryChan := make(chan *models.SessionSummary, 10)

	// === MQTT ===
	mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize MQTT client: %w", err)
	}
	defer mqttClient.Close()

	subscriber := mqtt.NewSubscriber(
		mqttClient.GetNativeClient(),
		mqtt.SubscriberConfig{
			LandmarksTopic: cfg.MQTTTopicLandmarks,
			ControlTopic:   cfg.MQTTTopicControl,
			QoS:            cfg.MQTTQoS,
		},
		detectionChan,
		controlChan,
	)

	publisher := mqtt.NewPublisher(
		mqttClient.GetNativeClient(),
		mqtt.PublisherConfig{
			FeedbackTopic: cfg.MQTTTopicFeedback,
			SummaryTopic:  cfg.MQTTTopicSummary,
			QoS:           cfg.MQTTQoS,
		},
		publishChan,
		summaryChan,
	)

	// === Services ===
	sessionCfg := services.DefaultSessionServiceConfig()
	sessionCfg.Engine = cfg.Engine()
	sessionCfg.AutoStart = cfg.SessionAutoStart
	sessionCfg.IdleTimeout = cfg.SessionIdleTimeout

	sessionService := services.NewSessionService(sessionCfg, detectionChan, controlChan, feedbackChan, summaryChan)
	feedbackService := services.NewFeedbackService(recorder, feedbackChan, publishChan)

	// Publishing outlives the session service so shutdown summaries go out
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		publisher.Start(pubCtx)
	}()
	feedbackDone := make(chan struct{})
	go func() {
		feedbackService.Start(ctx)
		close(feedbackDone)
	}()

	sessionsDone := make(chan struct{})
	go func() {
		sessionService.Start(ctx)
		close(sessionsDone)
	}()

	if err := subscriber.SubscribeAll(); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	mqttClient.OnReconnect(func() {
		if err := subscriber.SubscribeAll(); err != nil {
			slog.Error("failed to resubscribe after reconnect", "error", err)
		}
	})

	slog.Info("pose-feedback service running",
		"mqtt_connected", mqttClient.IsConnected(),
		"landmarks_topic", cfg.MQTTTopicLandmarks,
		"feedback_topic", cfg.MQTTTopicFeedback,
	)

	<-ctx.Done()
	slog.Info("shutdown signal received", "mqtt_connected", mqttClient.IsConnected())

	<-sessionsDone
	<-feedbackDone
	close(summaryChan)
	close(publishChan)
	wg.Wait()

	slog.Info("pose-feedback service stopped")
	return nil
}
