package source

import (
	"errors"
	"testing"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

func TestFakeSourceNext(t *testing.T) {
	readings := []sleep.Reading{
		{Value: 0.1, BreathRate: 14},
		{Value: 0.2, BreathRate: 15},
		{Value: 0.3, BreathRate: 16},
	}

	f := NewFakeSource(readings)

	for i, want := range readings {
		r, ok, err := f.Next()
		if err != nil {
			t.Fatalf("reading %d: unexpected error: %v", i, err)
		}
		if !ok {
			t.Fatalf("reading %d: expected ok", i)
		}
		if r.Value != want.Value || r.BreathRate != want.BreathRate {
			t.Errorf("reading %d: expected %v, got %v", i, want, r)
		}
	}

	// Exhausted: last reading repeats.
	r, _, _ := f.Next()
	if r.Value != 0.3 {
		t.Errorf("expected last reading to repeat, got %v", r.Value)
	}
}

func TestFakeSourceNoReadings(t *testing.T) {
	f := NewFakeSource(nil)

	_, _, err := f.Next()
	if err == nil {
		t.Error("expected error with no readings")
	}
}

func TestFakeSourceError(t *testing.T) {
	f := NewFakeSource([]sleep.Reading{{Value: 0.1}})
	f.ReadError = errors.New("simulated error")

	_, _, err := f.Next()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeSourceClose(t *testing.T) {
	f := NewFakeSource([]sleep.Reading{{Value: 0.1}})

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeSourceReset(t *testing.T) {
	f := NewFakeSource([]sleep.Reading{
		{Value: 0.1},
		{Value: 0.2},
	})

	f.Next()
	f.Reset()

	r, _, _ := f.Next()
	if r.Value != 0.1 {
		t.Errorf("after reset: expected first reading, got %v", r.Value)
	}
}
