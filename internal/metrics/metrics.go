// Package metrics provides Prometheus collectors for the breath sensor daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricSamplesAccepted    = "breath_samples_accepted_total"
	MetricSamplesDropped     = "breath_samples_dropped_total"
	MetricSourceReadErrors   = "breath_source_read_errors_total"
	MetricBroadcastFailures  = "breath_broadcast_failures_total"
	MetricSummaryWrites      = "breath_summary_writes_total"
	MetricSummaryWriteErrors = "breath_summary_write_errors_total"
	MetricCheckpointRuns     = "breath_checkpoint_runs_total"
	MetricSessionTransitions = "breath_session_transitions_total"
	MetricLiveViewers        = "breath_live_viewers"
	MetricSessionActive      = "breath_session_active"
	MetricBreathRate         = "breath_rate_breaths_per_minute"
)

// Metrics contains Prometheus metrics for the sensor pipeline.
// All operations are thread-safe.
type Metrics struct {
	samplesAccepted    prometheus.Counter
	samplesDropped     prometheus.Counter
	sourceReadErrors   prometheus.Counter
	broadcastFailures  prometheus.Counter
	summaryWrites      prometheus.Counter
	summaryWriteErrors prometheus.Counter
	checkpointRuns     prometheus.Counter
	sessionTransitions *prometheus.CounterVec
	liveViewers        prometheus.Gauge
	sessionActive      prometheus.Gauge
	breathRate         prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register them
// with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		samplesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSamplesAccepted,
			Help: "Total number of sensor samples folded into the day aggregate",
		}),
		samplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSamplesDropped,
			Help: "Total number of sensor samples rejected because no sleep session was active",
		}),
		sourceReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSourceReadErrors,
			Help: "Total number of sample source read failures",
		}),
		broadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricBroadcastFailures,
			Help: "Total number of live viewer connections that failed during a broadcast",
		}),
		summaryWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSummaryWrites,
			Help: "Total number of daily summary records written",
		}),
		summaryWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSummaryWriteErrors,
			Help: "Total number of daily summary write failures",
		}),
		checkpointRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCheckpointRuns,
			Help: "Total number of periodic checkpoint runs",
		}),
		sessionTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSessionTransitions,
				Help: "Total number of sleep session transitions by event",
			},
			[]string{"event"},
		),
		liveViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLiveViewers,
			Help: "Number of currently connected live dashboard viewers",
		}),
		sessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricSessionActive,
			Help: "Whether a sleep session is currently active (1) or not (0)",
		}),
		breathRate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricBreathRate,
			Help:    "Histogram of accepted per-sample breath rates in breaths per minute",
			Buckets: []float64{4, 8, 12, 16, 20, 24, 30, 40, 60},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncSamplesAccepted increments the accepted samples counter.
func (m *Metrics) IncSamplesAccepted() {
	m.samplesAccepted.Inc()
}

// IncSamplesDropped increments the dropped samples counter.
func (m *Metrics) IncSamplesDropped() {
	m.samplesDropped.Inc()
}

// IncSourceReadErrors increments the source read error counter.
func (m *Metrics) IncSourceReadErrors() {
	m.sourceReadErrors.Inc()
}

// AddBroadcastFailures adds n failed viewer writes to the broadcast failure counter.
func (m *Metrics) AddBroadcastFailures(n int) {
	if n > 0 {
		m.broadcastFailures.Add(float64(n))
	}
}

// IncSummaryWrites increments the summary write counter.
func (m *Metrics) IncSummaryWrites() {
	m.summaryWrites.Inc()
}

// IncSummaryWriteErrors increments the summary write error counter.
func (m *Metrics) IncSummaryWriteErrors() {
	m.summaryWriteErrors.Inc()
}

// IncCheckpointRuns increments the checkpoint run counter.
func (m *Metrics) IncCheckpointRuns() {
	m.checkpointRuns.Inc()
}

// IncSessionTransitions increments the session transition counter for an event
// such as "STARTED" or "PAUSED".
func (m *Metrics) IncSessionTransitions(event string) {
	m.sessionTransitions.WithLabelValues(event).Inc()
}

// IncLiveViewers increments the connected viewer gauge.
func (m *Metrics) IncLiveViewers() {
	m.liveViewers.Inc()
}

// DecLiveViewers decrements the connected viewer gauge.
func (m *Metrics) DecLiveViewers() {
	m.liveViewers.Dec()
}

// SetSessionActive records whether a sleep session is currently active.
func (m *Metrics) SetSessionActive(active bool) {
	if active {
		m.sessionActive.Set(1)
	} else {
		m.sessionActive.Set(0)
	}
}

// ObserveBreathRate records an accepted sample's breath rate.
func (m *Metrics) ObserveBreathRate(rate float64) {
	m.breathRate.Observe(rate)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.samplesAccepted,
		m.samplesDropped,
		m.sourceReadErrors,
		m.broadcastFailures,
		m.summaryWrites,
		m.summaryWriteErrors,
		m.checkpointRuns,
		m.sessionTransitions,
		m.liveViewers,
		m.sessionActive,
		m.breathRate,
	}
}
