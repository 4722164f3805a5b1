// Package led drives the session status LED with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package led

// Indicator drives the status LED.
type Indicator interface {
	// Set switches the LED on or off.
	Set(on bool) error

	// Close releases GPIO resources, leaving the LED off.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	PinStatus = 21 // status LED, lit while a sleep session is active
)
