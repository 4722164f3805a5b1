// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

// TopicSamples is the MQTT topic for live breath samples.
const TopicSamples = "breath/sensor/samples"

// TopicSession is the MQTT topic for sleep session transitions.
const TopicSession = "breath/sensor/session"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "breath/sensor/system"

// Publisher publishes breath sensor traffic to MQTT.
type Publisher interface {
	// PublishSample sends one accepted sample to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishSample(sample sleep.Sample) error

	// PublishSession sends a sleep session transition to the broker.
	PublishSession(event SessionEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SessionEvent represents a sleep session transition to be published.
type SessionEvent struct {
	Timestamp      time.Time
	Event          string // e.g., "STARTED", "PAUSED", "RESUMED", "ENDED"
	SessionID      string
	State          sleep.State
	TotalSleepSecs float64
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SamplePayload represents the MQTT message payload for a breath sample.
type SamplePayload struct {
	Breath sleep.Sample `json:"breath"`
}

// FormatSamplePayload creates the JSON payload for a breath sample.
func FormatSamplePayload(sample sleep.Sample) ([]byte, error) {
	return json.Marshal(SamplePayload{Breath: sample})
}

// SessionPayload represents the MQTT message payload for a session transition.
type SessionPayload struct {
	Session SessionPayloadInner `json:"session"`
}

// SessionPayloadInner contains the session transition details.
type SessionPayloadInner struct {
	Timestamp      string  `json:"timestamp"`
	Event          string  `json:"event"`
	SessionID      string  `json:"session_id"`
	State          string  `json:"state"`
	TotalSleepSecs float64 `json:"total_sleep_secs"`
}

// FormatSessionPayload creates the JSON payload for a session transition.
func FormatSessionPayload(event SessionEvent) ([]byte, error) {
	payload := SessionPayload{
		Session: SessionPayloadInner{
			Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			Event:          event.Event,
			SessionID:      event.SessionID,
			State:          string(event.State),
			TotalSleepSecs: event.TotalSleepSecs,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
