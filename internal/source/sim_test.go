package source

import (
	"math"
	"math/rand"
	"testing"
)

func TestSimSourceFirstReading(t *testing.T) {
	s := NewSimSource(rand.New(rand.NewSource(1)), 0)

	r, ok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("simulator should never produce an empty cycle")
	}

	if r.Value != 0 {
		t.Errorf("expected sin(0)=0 on first cycle, got %v", r.Value)
	}
	if r.Lower != -1.0 || r.Upper != 1.0 {
		t.Errorf("expected bounds -1/1, got %v/%v", r.Lower, r.Upper)
	}
	if r.BreathRate != 30 {
		t.Errorf("expected breath rate 30, got %v", r.BreathRate)
	}
	if r.Apneas != 1 || r.Hypopneas != 1 {
		t.Errorf("expected apneas/hypopneas 1/1, got %d/%d", r.Apneas, r.Hypopneas)
	}
	if r.AHI != 5 {
		t.Errorf("expected AHI 5, got %v", r.AHI)
	}
	if r.Peak != 0 {
		t.Errorf("expected no peak at sin(0), got %d", r.Peak)
	}
}

func TestSimSourceAdvancesWaveform(t *testing.T) {
	s := NewSimSource(rand.New(rand.NewSource(1)), 0)

	s.Next()
	r, _, _ := s.Next()

	want := math.Sin(2.0 * 0.02)
	if r.Value != want {
		t.Errorf("expected second value sin(0.04)=%v, got %v", want, r.Value)
	}
}

func TestSimSourcePeaksInRange(t *testing.T) {
	s := NewSimSource(rand.New(rand.NewSource(7)), 0)

	for i := 0; i < 200; i++ {
		r, _, _ := s.Next()
		if r.PeaksIn20 < 3 || r.PeaksIn20 > 15 {
			t.Fatalf("cycle %d: peaks %d outside 3..15", i, r.PeaksIn20)
		}
	}
}

func TestSimSourceFlagsPeaks(t *testing.T) {
	s := NewSimSource(rand.New(rand.NewSource(1)), 0)

	// The wave crests above the 0.9 threshold within the first half period.
	sawPeak := false
	for i := 0; i < 200; i++ {
		r, _, _ := s.Next()
		if r.Value > 1.0 || r.Value < -1.0 {
			t.Fatalf("cycle %d: value %v outside bounds", i, r.Value)
		}
		if r.Peak == 1 {
			if r.Value <= 0.9 {
				t.Fatalf("cycle %d: peak flagged at value %v", i, r.Value)
			}
			sawPeak = true
		}
	}
	if !sawPeak {
		t.Error("expected at least one flagged peak over 200 cycles")
	}
}

func TestSimSourceClose(t *testing.T) {
	s := NewSimSource(rand.New(rand.NewSource(1)), 0)
	if err := s.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
