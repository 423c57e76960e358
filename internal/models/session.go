package models

import "time"

// Session control actions
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// DefaultSport is the only sport with guard analysis
const DefaultSport = "boxing"

// SessionControl starts or stops a feedback session
type SessionControl struct {
	SessionID string    `json:"session_id" msgpack:"session_id"`
	Action    string    `json:"action" msgpack:"action"`                   // start | stop
	Sport     string    `json:"sport,omitempty" msgpack:"sport,omitempty"` // defaults to boxing
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
}

// SessionSummary is published when a session ends
type SessionSummary struct {
	SessionID string        `json:"session_id"`
	Sport     string        `json:"sport"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration_ns"`
	Received  uint64        `json:"frames_received"`
	Processed uint64        `json:"frames_processed"`
	Correct   uint64        `json:"correct"`
	Incorrect uint64        `json:"incorrect"`
	Skipped   uint64        `json:"skipped"`
	Dropped   uint64        `json:"dropped"`
	Reason    string        `json:"reason"` // stop | idle | shutdown | replay
}
