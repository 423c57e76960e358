// Package engine turns a stream of pose landmarks into per-frame guard
// feedback.
//
// One Engine belongs to one session. Its only mutable state is the pair of
// smoothing windows (and, with ReuseLastSide, the last resolved side). It
// does no I/O and must not be called concurrently.
package engine

import (
	"fmt"

	"pose-feedback/internal/aggregator"
	"pose-feedback/internal/models"
)

// Config holds the tunable engine parameters
type Config struct {
	Threshold     float64 // Guard/span ratio below which the guard is correct
	WindowSize    int     // Samples averaged per signal
	MinVisibility float64 // Landmarks reported below this visibility count as missing
	ReuseLastSide bool    // Fall back to the previous side when depth is unavailable
}

// DefaultConfig returns the calibrated defaults
func DefaultConfig() Config {
	return Config{
		Threshold:     DefaultThreshold,
		WindowSize:    aggregator.DefaultWindowSize,
		MinVisibility: 0,
		ReuseLastSide: false,
	}
}

// Validate checks the configuration for values the engine cannot run with
func (c Config) Validate() error {
	if !finite(c.Threshold) || c.Threshold <= 0 {
		return fmt.Errorf("threshold must be > 0, got %v", c.Threshold)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window size must be >= 1, got %d", c.WindowSize)
	}
	if c.MinVisibility < 0 || c.MinVisibility > 1 {
		return fmt.Errorf("min visibility must be within [0,1], got %v", c.MinVisibility)
	}
	return nil
}

// Engine is the per-session feedback pipeline
type Engine struct {
	cfg Config

	guard *aggregator.SmoothingWindow
	span  *aggregator.SmoothingWindow

	lastSide models.Side
}

// New creates an engine with empty smoothing windows
func New(cfg Config) *Engine {
	return &Engine{
		cfg:   cfg,
		guard: aggregator.NewSmoothingWindow(cfg.WindowSize),
		span:  aggregator.NewSmoothingWindow(cfg.WindowSize),
	}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// ProcessDetection ingests a raw detection and processes it
func (e *Engine) ProcessDetection(det models.DetectionResult) (models.FeedbackEvent, error) {
	frame, err := Ingest(det, e.cfg.MinVisibility)
	if err != nil {
		return models.FeedbackEvent{}, err
	}
	ev, err := e.Process(&frame)
	if err != nil {
		return models.FeedbackEvent{}, err
	}
	ev.SessionID = det.SessionID
	return ev, nil
}

// Process runs one frame through side resolution, signal extraction,
// smoothing, classification and emission.
// On error the smoothing windows are left untouched.
func (e *Engine) Process(frame *models.PoseFrame) (models.FeedbackEvent, error) {
	side := e.resolveSide(frame)

	signals, err := ExtractSignals(frame, side)
	if err != nil {
		return models.FeedbackEvent{}, err
	}

	smoothedGuard := e.guard.Push(signals.Guard)
	smoothedSpan := e.span.Push(signals.Span)

	res := Classify(smoothedGuard, smoothedSpan, e.cfg.Threshold, side)
	return Emit(res, frame), nil
}

func (e *Engine) resolveSide(frame *models.PoseFrame) models.Side {
	side := ResolveSide(frame)
	if side != models.SideUndetermined {
		e.lastSide = side
		return side
	}
	if e.cfg.ReuseLastSide {
		return e.lastSide
	}
	return models.SideUndetermined
}

// Samples returns how many samples each smoothing window holds
func (e *Engine) Samples() int {
	return e.guard.Len()
}

// Windows returns copies of the guard and span window contents, oldest first
func (e *Engine) Windows() (guard, span []float64) {
	return e.guard.Values(), e.span.Values()
}
