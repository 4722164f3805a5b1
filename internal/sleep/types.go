// Package sleep contains pure business logic for sleep session tracking and
// daily breath aggregation. This package has NO external dependencies (no
// serial, MQTT, OS, or time.Sleep). Time is always injectable via time.Time
// parameters.
package sleep

// State represents the lifecycle state of a sleep session.
type State string

const (
	StateIdle   State = "IDLE"
	StateActive State = "ACTIVE"
	StatePaused State = "PAUSED"
	StateEnded  State = "ENDED"
)

// DateFormat is the calendar-date layout used for aggregate stamps and
// summary filenames.
const DateFormat = "2006-01-02"

// Reading is one cycle of sensor output before session enrichment.
// Lower and Upper are the display bounds the sensor wants the waveform
// plotted against; Peak is 1 when the cycle crested a breath peak.
type Reading struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Value      float64 `json:"value"`
	PeaksIn20  int     `json:"peaks_in_20"`
	BreathRate float64 `json:"breath_rate"`
	Apneas     int     `json:"apneas"`
	Hypopneas  int     `json:"hypopneas"`
	Peak       int     `json:"peak"`
	AHI        float64 `json:"AHI"`
}

// Sample is a Reading accepted into an active session, stamped with the
// session's cumulative sleep seconds at the moment of emission. This is the
// unit broadcast to live viewers and folded into the day aggregate.
type Sample struct {
	Reading
	TotalSleepSecs float64 `json:"total_sleep_secs"`
}

// Summary is the per-date record persisted by the summary store.
type Summary struct {
	Date           string  `json:"date"`
	AvgBreathRate  float64 `json:"avg_breath_rate"`
	MinBreathRate  float64 `json:"min_breath_rate"`
	MaxBreathRate  float64 `json:"max_breath_rate"`
	AvgPeaksIn20   float64 `json:"avg_peaks_in_20"`
	ApneaEvents    int     `json:"apnea_events"`
	HypopneaEvents int     `json:"hypopnea_events"`
	AHI            float64 `json:"AHI"`
	LongestPause   float64 `json:"longest_pause"`
	TotalSleepSecs float64 `json:"total_sleep_secs"`
}
