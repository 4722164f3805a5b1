// Package source provides breath sample acquisition with hardware abstraction.
// The real implementation reads an Arduino-class sensor over a serial port.
// The sim implementation generates a synthetic waveform for running without
// hardware; the fake implementation is scripted for tests.
package source

import "github.com/sweeney/breath-sensor/internal/sleep"

// Source produces sensor readings one cycle at a time.
type Source interface {
	// Next blocks until the next cycle and returns its reading.
	// ok is false for an empty cycle (nothing arrived before the read
	// timeout); the caller should simply poll again.
	Next() (sleep.Reading, bool, error)

	// Close releases the underlying device or generator.
	Close() error
}

// Display bounds reported with every serial reading. The sensor demeans its
// waveform, so the bounds are fixed rather than measured.
const (
	serialLower = -0.5
	serialUpper = 0.5
)

// peakThreshold is the demeaned value above which a cycle counts as a
// breath peak.
const peakThreshold = 0.9

func peakFlag(value float64) int {
	if value > peakThreshold {
		return 1
	}
	return 0
}
