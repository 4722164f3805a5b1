package source

import (
	"math"
	"math/rand"
	"time"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

// Simulator waveform parameters. The sine period matches a calm 30
// breaths-per-minute rate so the dashboard looks like a real night.
const (
	simPeriod = 2.0
	simStep   = 0.02
	simLower  = -1.0
	simUpper  = 1.0
)

// SimSource generates a synthetic breathing waveform so the daemon can run
// without the sensor attached. Each cycle advances a sine wave one step; the
// event counters carry the same fixed values the bench sensor reports in its
// self-test mode.
type SimSource struct {
	t    float64
	rng  *rand.Rand
	pace time.Duration
}

// NewSimSource creates a simulator. rng drives the peaks-in-20 jitter and
// may be seeded for reproducible output. pace is the delay per cycle; pass
// zero for tests.
func NewSimSource(rng *rand.Rand, pace time.Duration) *SimSource {
	return &SimSource{rng: rng, pace: pace}
}

// Next returns the next synthetic reading. It never errors and never
// produces an empty cycle.
func (s *SimSource) Next() (sleep.Reading, bool, error) {
	if s.pace > 0 {
		time.Sleep(s.pace)
	}

	value := math.Sin(simPeriod * s.t)
	r := sleep.Reading{
		Lower:      simLower,
		Upper:      simUpper,
		Value:      value,
		PeaksIn20:  3 + s.rng.Intn(13),
		BreathRate: 60 / simPeriod,
		Apneas:     1,
		Hypopneas:  1,
		Peak:       peakFlag(value),
		AHI:        5,
	}
	s.t += simStep
	return r, true, nil
}

// Close is a no-op for the simulator.
func (s *SimSource) Close() error {
	return nil
}
