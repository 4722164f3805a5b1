package source

import (
	"errors"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

// FakeSource is a test double that returns scripted readings.
type FakeSource struct {
	// Readings contains scripted values to return.
	// Each call to Next() consumes the next reading.
	Readings []sleep.Reading

	// index tracks current position in Readings
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Next()
	ReadError error
}

// NewFakeSource creates a FakeSource with the given readings.
func NewFakeSource(readings []sleep.Reading) *FakeSource {
	return &FakeSource{Readings: readings}
}

// Next returns the next scripted reading.
// If readings are exhausted, returns the last reading repeatedly.
func (f *FakeSource) Next() (sleep.Reading, bool, error) {
	if f.ReadError != nil {
		return sleep.Reading{}, false, f.ReadError
	}

	if len(f.Readings) == 0 {
		return sleep.Reading{}, false, errors.New("no readings configured")
	}

	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}

	return r, true, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the source to the first reading.
func (f *FakeSource) Reset() {
	f.index = 0
	f.Closed = false
}
