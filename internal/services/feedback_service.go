package services

import (
	"context"
	"log/slog"
	"time"

	"pose-feedback/internal/models"
)

// FeedbackRecorder persists feedback events
type FeedbackRecorder interface {
	SaveFeedbackEvent(ctx context.Context, ev *models.FeedbackEvent) error
}

// FeedbackService records feedback events and forwards them to the
// publisher
type FeedbackService struct {
	recorder FeedbackRecorder // nil disables recording

	// Input channel from the session service
	FeedbackChan chan *models.FeedbackEvent

	out         chan<- *models.FeedbackEvent
	sendTimeout time.Duration
}

// NewFeedbackService creates a feedback service. recorder may be nil.
func NewFeedbackService(
	recorder FeedbackRecorder,
	feedbackChan chan *models.FeedbackEvent,
	out chan<- *models.FeedbackEvent,
) *FeedbackService {
	return &FeedbackService{
		recorder:     recorder,
		FeedbackChan: feedbackChan,
		out:          out,
		sendTimeout:  time.Second,
	}
}

// Start processes feedback until the context is cancelled or the input
// channel is closed
func (s *FeedbackService) Start(ctx context.Context) {
	slog.Info("feedback service: starting", "recording", s.recorder != nil)

	for {
		select {
		case <-ctx.Done():
			slog.Info("feedback service: shutting down")
			return
		case ev, ok := <-s.FeedbackChan:
			if !ok {
				slog.Info("feedback service: input closed, shutting down")
				return
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *FeedbackService) handle(ctx context.Context, ev *models.FeedbackEvent) {
	if s.recorder != nil {
		if err := s.recorder.SaveFeedbackEvent(ctx, ev); err != nil {
			slog.Error("feedback service: failed to record event",
				"session_id", ev.SessionID, "seq", ev.Seq, "error", err)
		}
	}

	if s.out == nil {
		return
	}
	select {
	case s.out <- ev:
	case <-time.After(s.sendTimeout):
		slog.Warn("feedback service: publish channel full, dropping event",
			"session_id", ev.SessionID, "seq", ev.Seq)
	}
}
