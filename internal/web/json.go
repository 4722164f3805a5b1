package web

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details. Event and Reason are only set
// when the envelope rides an MQTT system message.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Session       SessionJSON `json:"session"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Viewers       int         `json:"viewers"`
	Store         StoreJSON   `json:"store"`
	Config        ConfigJSON  `json:"config"`
}

// SessionJSON is the JSON representation of the sleep session.
type SessionJSON struct {
	State          string  `json:"state"`
	SessionID      string  `json:"session_id,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Date           string  `json:"date"`
	SampleCount    int     `json:"sample_count"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// StoreJSON reports summary store state.
type StoreJSON struct {
	Dir       string `json:"dir"`
	Summaries int    `json:"summaries"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Source            string `json:"source"`
	Broker            string `json:"broker"`
	HTTPAddr          string `json:"http_addr"`
	WSBroker          string `json:"ws_broker,omitempty"`
	DataDir           string `json:"data_dir"`
	ScreensDir        string `json:"screens_dir"`
	CheckpointSeconds int64  `json:"checkpoint_seconds"`
}

func (s *Server) buildStatusInner() StatusInner {
	snap := s.deps.Tracker.Snapshot()

	connected := false
	if s.deps.MQTT != nil {
		connected = s.deps.MQTT.IsConnected()
	}

	return StatusInner{
		Session: SessionJSON{
			State:          string(snap.SessionState),
			SessionID:      snap.SessionID,
			ElapsedSeconds: snap.Elapsed.Seconds(),
			Date:           snap.Date,
			SampleCount:    snap.SampleCount,
		},
		UptimeSeconds: int64(snap.Now.Sub(s.deps.StartTime).Truncate(time.Second).Seconds()),
		StartTime:     s.deps.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: connected, Broker: s.deps.Config.Broker},
		Viewers:       s.deps.Hub.Count(),
		Store:         StoreJSON{Dir: s.deps.Store.Dir(), Summaries: s.deps.Store.Count()},
		Config: ConfigJSON{
			Source:            s.deps.Config.Source,
			Broker:            s.deps.Config.Broker,
			HTTPAddr:          s.deps.Config.HTTPAddr,
			WSBroker:          s.deps.Config.WSBroker,
			DataDir:           s.deps.Config.DataDir,
			ScreensDir:        s.deps.Config.ScreensDir,
			CheckpointSeconds: int64(s.deps.Config.CheckpointInterval.Seconds()),
		},
	}
}

func (s *Server) formatStatusJSON() []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: s.buildStatusInner()}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact status envelope with a lifecycle
// event stamped in, used as the payload of retained MQTT system messages.
func (s *Server) FormatStatusEvent(event, reason string) []byte {
	inner := s.buildStatusInner()
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
