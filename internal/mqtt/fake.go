package mqtt

import (
	"github.com/sweeney/breath-sensor/internal/sleep"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Samples contains all breath samples that were published.
	Samples []sleep.Sample

	// SamplePayloads contains the JSON payloads for samples.
	SamplePayloads [][]byte

	// SessionEvents contains all session transitions that were published.
	SessionEvents []SessionEvent

	// SessionPayloads contains the JSON payloads for session transitions.
	SessionPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishSampleError, if set, will be returned by PublishSample.
	PublishSampleError error

	// PublishSessionError, if set, will be returned by PublishSession.
	PublishSessionError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishSample records the sample.
func (f *FakePublisher) PublishSample(sample sleep.Sample) error {
	if f.PublishSampleError != nil {
		return f.PublishSampleError
	}

	f.Samples = append(f.Samples, sample)

	payload, err := FormatSamplePayload(sample)
	if err != nil {
		return err
	}
	f.SamplePayloads = append(f.SamplePayloads, payload)

	return nil
}

// PublishSession records the session transition.
func (f *FakePublisher) PublishSession(event SessionEvent) error {
	if f.PublishSessionError != nil {
		return f.PublishSessionError
	}

	f.SessionEvents = append(f.SessionEvents, event)

	payload, err := FormatSessionPayload(event)
	if err != nil {
		return err
	}
	f.SessionPayloads = append(f.SessionPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Samples = nil
	f.SamplePayloads = nil
	f.SessionEvents = nil
	f.SessionPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishSampleError = nil
	f.PublishSessionError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
