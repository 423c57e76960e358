// Package codec decodes pose-estimator payloads.
//
// Detections arrive either as JSON or as MessagePack. The format is picked
// from the first non-blank byte: a JSON object starts with '{', a
// MessagePack map starts with a fixmap (0x80-0x8f) or map16/map32 marker.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"pose-feedback/internal/models"
)

// Format identifies a payload encoding
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ErrEmptyPayload is returned for a payload with no content
var ErrEmptyPayload = errors.New("empty payload")

// Detect inspects the leading byte of payload
func Detect(payload []byte) Format {
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	b := trimmed[0]
	switch {
	case b == '{':
		return FormatJSON
	case b >= 0x80 && b <= 0x8f, b == 0xde, b == 0xdf:
		return FormatMsgpack
	default:
		return FormatUnknown
	}
}

// DecodeDetection decodes one detection in either supported format
func DecodeDetection(payload []byte) (models.DetectionResult, error) {
	var det models.DetectionResult
	if err := decode(payload, &det); err != nil {
		return models.DetectionResult{}, fmt.Errorf("failed to decode detection: %w", err)
	}
	return det, nil
}

// DecodeControl decodes a session control message. The action is
// normalized to lowercase and the sport defaults to boxing.
func DecodeControl(payload []byte) (models.SessionControl, error) {
	var ctl models.SessionControl
	if err := decode(payload, &ctl); err != nil {
		return models.SessionControl{}, fmt.Errorf("failed to decode control message: %w", err)
	}

	ctl.Action = strings.ToLower(strings.TrimSpace(ctl.Action))
	switch ctl.Action {
	case models.ActionStart, models.ActionStop:
	default:
		return models.SessionControl{}, fmt.Errorf("unknown control action %q", ctl.Action)
	}

	ctl.Sport = strings.ToLower(strings.TrimSpace(ctl.Sport))
	if ctl.Sport == "" {
		ctl.Sport = models.DefaultSport
	}
	return ctl, nil
}

func decode(payload []byte, v any) error {
	switch Detect(payload) {
	case FormatJSON:
		return json.Unmarshal(payload, v)
	case FormatMsgpack:
		return msgpack.Unmarshal(payload, v)
	default:
		trimmed := bytes.TrimSpace(payload)
		if len(trimmed) == 0 {
			return ErrEmptyPayload
		}
		return fmt.Errorf("unrecognized payload format (leading byte 0x%02x)", trimmed[0])
	}
}
