package led

import (
	"errors"
	"testing"
)

// Both implementations must satisfy the Indicator interface.
var (
	_ Indicator = (*FakeIndicator)(nil)
	_ Indicator = (*RealIndicator)(nil)
)

func TestFakeIndicatorRecordsStates(t *testing.T) {
	f := NewFakeIndicator()

	if f.On() {
		t.Error("fresh indicator should be off")
	}

	if err := f.Set(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []bool{true, false, true}
	if len(f.States) != len(want) {
		t.Fatalf("expected %d recorded states, got %d", len(want), len(f.States))
	}
	for i, s := range want {
		if f.States[i] != s {
			t.Errorf("state %d: expected %v, got %v", i, s, f.States[i])
		}
	}

	if !f.On() {
		t.Error("indicator should report the last set state")
	}
}

func TestFakeIndicatorError(t *testing.T) {
	f := NewFakeIndicator()
	f.SetError = errors.New("simulated error")

	if err := f.Set(true); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.States) != 0 {
		t.Error("failed Set should not record a state")
	}
}

func TestFakeIndicatorClose(t *testing.T) {
	f := NewFakeIndicator()

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

func TestFakeIndicatorReset(t *testing.T) {
	f := NewFakeIndicator()
	f.Set(true)
	f.Close()

	f.Reset()

	if len(f.States) != 0 {
		t.Error("reset should clear recorded states")
	}
	if f.Closed {
		t.Error("reset should clear closed flag")
	}
	if f.On() {
		t.Error("reset indicator should be off")
	}
}
