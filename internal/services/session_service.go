package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pose-feedback/internal/engine"
	"pose-feedback/internal/models"
)

// Summary reasons
const (
	ReasonStop     = "stop"
	ReasonIdle     = "idle"
	ReasonShutdown = "shutdown"
	ReasonReplay   = "replay"
)

// SessionServiceConfig holds configuration for the session service
type SessionServiceConfig struct {
	Engine       engine.Config
	AutoStart    bool          // Start a boxing session on the first frame of an unknown session
	IdleTimeout  time.Duration // Sessions without frames for this long are stopped
	ReapInterval time.Duration // How often idle sessions are checked for
	SendTimeout  time.Duration // How long a summary send waits on a full channel
}

// DefaultSessionServiceConfig returns default configuration
func DefaultSessionServiceConfig() SessionServiceConfig {
	return SessionServiceConfig{
		Engine:       engine.DefaultConfig(),
		AutoStart:    true,
		IdleTimeout:  30 * time.Second,
		ReapInterval: 5 * time.Second,
		SendTimeout:  time.Second,
	}
}

// session is one active feedback session. The worker goroutine owns the
// engine; counters are shared with the service loop.
type session struct {
	id        string
	sport     string
	startedAt time.Time
	lastSeen  time.Time

	engine  *engine.Engine
	mailbox *mailbox
	quit    chan struct{}
	done    chan struct{}

	received  atomic.Uint64
	processed atomic.Uint64
	correct   atomic.Uint64
	incorrect atomic.Uint64
	skipped   atomic.Uint64
}

// SessionService routes detections to per-session engines and emits
// feedback events and session summaries
type SessionService struct {
	cfg SessionServiceConfig

	// Input channels from the MQTT subscriber
	DetectionChan chan *models.DetectionResult
	ControlChan   chan *models.SessionControl

	// Output channels
	feedbackOut chan<- *models.FeedbackEvent
	summaryOut  chan<- *models.SessionSummary

	mu       sync.Mutex
	sessions map[string]*session

	now func() time.Time
}

// NewSessionService creates a session service reading from the given
// input channels and writing to the given outputs
func NewSessionService(
	cfg SessionServiceConfig,
	detectionChan chan *models.DetectionResult,
	controlChan chan *models.SessionControl,
	feedbackOut chan<- *models.FeedbackEvent,
	summaryOut chan<- *models.SessionSummary,
) *SessionService {
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = 5 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = time.Second
	}
	return &SessionService{
		cfg:           cfg,
		DetectionChan: detectionChan,
		ControlChan:   controlChan,
		feedbackOut:   feedbackOut,
		summaryOut:    summaryOut,
		sessions:      make(map[string]*session),
		now:           time.Now,
	}
}

// Start processes input channels until the context is cancelled, then
// stops every active session
func (s *SessionService) Start(ctx context.Context) {
	slog.Info("session service: starting",
		"auto_start", s.cfg.AutoStart,
		"idle_timeout", s.cfg.IdleTimeout,
		"threshold", s.cfg.Engine.Threshold,
		"window_size", s.cfg.Engine.WindowSize,
	)

	ticker := time.NewTicker(s.cfg.ReapInterval)
	defer ticker.Stop()

	detections, controls := s.DetectionChan, s.ControlChan
	for {
		select {
		case <-ctx.Done():
			slog.Info("session service: shutting down")
			s.StopAll(ReasonShutdown)
			slog.Info("session service: shutdown complete")
			return

		case det, ok := <-detections:
			if !ok {
				detections = nil
				continue
			}
			s.HandleDetection(det)

		case ctl, ok := <-controls:
			if !ok {
				controls = nil
				continue
			}
			s.HandleControl(ctl)

		case <-ticker.C:
			s.ReapIdle()
		}
	}
}

// HandleDetection delivers a detection to its session mailbox
func (s *SessionService) HandleDetection(det *models.DetectionResult) {
	s.mu.Lock()
	sess, ok := s.sessions[det.SessionID]
	if !ok {
		if !s.cfg.AutoStart {
			s.mu.Unlock()
			slog.Debug("session service: frame for unknown session ignored", "session_id", det.SessionID)
			return
		}
		sess = s.startLocked(det.SessionID, models.DefaultSport)
	}
	sess.lastSeen = s.now()
	s.mu.Unlock()

	if sess.mailbox.Put(det) {
		sess.received.Add(1)
	}
}

// HandleControl starts or stops a session
func (s *SessionService) HandleControl(ctl *models.SessionControl) {
	switch ctl.Action {
	case models.ActionStart:
		sport := ctl.Sport
		if sport == "" {
			sport = models.DefaultSport
		}

		s.mu.Lock()
		existing, ok := s.sessions[ctl.SessionID]
		if ok && existing.sport == sport {
			s.mu.Unlock()
			slog.Debug("session service: session already active", "session_id", ctl.SessionID)
			return
		}
		if ok {
			delete(s.sessions, ctl.SessionID)
		}
		s.startLocked(ctl.SessionID, sport)
		s.mu.Unlock()

		if ok {
			s.finish(existing, ReasonStop)
		}

	case models.ActionStop:
		s.mu.Lock()
		sess, ok := s.sessions[ctl.SessionID]
		delete(s.sessions, ctl.SessionID)
		s.mu.Unlock()

		if !ok {
			slog.Warn("session service: stop for unknown session", "session_id", ctl.SessionID)
			return
		}
		s.finish(sess, ReasonStop)

	default:
		slog.Warn("session service: unknown control action", "session_id", ctl.SessionID, "action", ctl.Action)
	}
}

// ReapIdle stops sessions that have not received a frame within the idle
// timeout
func (s *SessionService) ReapIdle() {
	if s.cfg.IdleTimeout <= 0 {
		return
	}
	cutoff := s.now().Add(-s.cfg.IdleTimeout)

	var idle []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.finish(sess, ReasonIdle)
	}
}

// StopAll stops every active session
func (s *SessionService) StopAll(reason string) {
	s.mu.Lock()
	all := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		s.finish(sess, reason)
	}
}

// ActiveSessions returns the number of running sessions
func (s *SessionService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) startLocked(id, sport string) *session {
	now := s.now()
	sess := &session{
		id:        id,
		sport:     sport,
		startedAt: now,
		lastSeen:  now,
		engine:    engine.New(s.cfg.Engine),
		mailbox:   newMailbox(),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.sessions[id] = sess

	go s.run(sess)

	slog.Info("session service: session started", "session_id", id, "sport", sport)
	return sess
}

// run drains the session mailbox until it is closed
func (s *SessionService) run(sess *session) {
	defer close(sess.done)

	for {
		det, ok := sess.mailbox.Take()
		if !ok {
			return
		}
		s.process(sess, det)
	}
}

func (s *SessionService) process(sess *session, det *models.DetectionResult) {
	// Only boxing has guard analysis
	if sess.sport != models.DefaultSport {
		sess.skipped.Add(1)
		return
	}

	ev, err := sess.engine.ProcessDetection(*det)
	if err != nil {
		sess.skipped.Add(1)
		level := slog.LevelDebug
		if errors.Is(err, engine.ErrMalformedFrame) {
			level = slog.LevelWarn
		}
		slog.Log(context.Background(), level, "session service: frame skipped",
			"session_id", sess.id, "seq", det.Seq, "error", err)
		return
	}

	sess.processed.Add(1)
	if ev.IsCorrect() {
		sess.correct.Add(1)
	} else {
		sess.incorrect.Add(1)
	}

	if s.feedbackOut == nil {
		return
	}
	select {
	case s.feedbackOut <- &ev:
	case <-sess.quit:
	}
}

// finish stops the worker, waits for it and emits the session summary
func (s *SessionService) finish(sess *session, reason string) {
	close(sess.quit)
	sess.mailbox.Close()
	<-sess.done

	ended := s.now()
	summary := &models.SessionSummary{
		SessionID: sess.id,
		Sport:     sess.sport,
		StartedAt: sess.startedAt,
		EndedAt:   ended,
		Duration:  ended.Sub(sess.startedAt),
		Received:  sess.received.Load(),
		Processed: sess.processed.Load(),
		Correct:   sess.correct.Load(),
		Incorrect: sess.incorrect.Load(),
		Skipped:   sess.skipped.Load(),
		Dropped:   sess.mailbox.Dropped(),
		Reason:    reason,
	}

	slog.Info("session service: session ended",
		"session_id", summary.SessionID,
		"reason", reason,
		"processed", summary.Processed,
		"correct", summary.Correct,
		"incorrect", summary.Incorrect,
		"skipped", summary.Skipped,
		"dropped", summary.Dropped,
	)

	if s.summaryOut == nil {
		return
	}
	select {
	case s.summaryOut <- summary:
	case <-time.After(s.cfg.SendTimeout):
		slog.Warn("session service: summary channel full, dropping summary", "session_id", sess.id)
	}
}
