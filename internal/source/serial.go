package source

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

// SerialSource reads readings from the sensor over a serial port. The sensor
// emits one line per cycle: the demeaned waveform value, a tab, then
// peaks-in-20, breath rate, apnea count, hypopnea count and AHI separated by
// spaces. Malformed lines are dropped here so the rest of the pipeline only
// ever sees complete readings.
type SerialSource struct {
	port    serial.Port
	buf     []byte
	pending []byte // bytes received but not yet terminated by newline
}

// NewSerialSource opens the given serial device at the given baud rate.
// Reads time out after a second so the caller's loop can observe shutdown.
func NewSerialSource(device string, baud int) (*SerialSource, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}

	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	return &SerialSource{port: port, buf: make([]byte, 256)}, nil
}

// Next returns the next complete reading from the port. A read timeout with
// no buffered line is reported as an empty cycle (ok=false, nil error).
// Lines that fail to parse are skipped.
func (s *SerialSource) Next() (sleep.Reading, bool, error) {
	for {
		if i := bytes.IndexByte(s.pending, '\n'); i >= 0 {
			line := strings.TrimSpace(string(s.pending[:i]))
			s.pending = s.pending[i+1:]
			if line == "" {
				continue
			}
			r, ok := ParseLine(line)
			if !ok {
				continue
			}
			return r, true, nil
		}

		// The timeout surfaces as a zero-byte read, which is also why a
		// bufio.Reader cannot wrap the port (it treats repeated zero-byte
		// reads as no progress).
		n, err := s.port.Read(s.buf)
		if err != nil {
			return sleep.Reading{}, false, fmt.Errorf("serial read: %w", err)
		}
		if n == 0 {
			return sleep.Reading{}, false, nil
		}
		s.pending = append(s.pending, s.buf[:n]...)
	}
}

// Close releases the serial port.
func (s *SerialSource) Close() error {
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}

// ParseLine decodes one sensor line into a reading. ok is false for
// anything malformed: missing tab, short field list, or unparseable numbers.
func ParseLine(line string) (sleep.Reading, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 2 {
		return sleep.Reading{}, false
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return sleep.Reading{}, false
	}

	fields := strings.Fields(parts[1])
	if len(fields) < 5 {
		return sleep.Reading{}, false
	}

	peaks, err := strconv.Atoi(fields[0])
	if err != nil {
		return sleep.Reading{}, false
	}
	rate, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return sleep.Reading{}, false
	}
	apneas, err := strconv.Atoi(fields[2])
	if err != nil {
		return sleep.Reading{}, false
	}
	hypopneas, err := strconv.Atoi(fields[3])
	if err != nil {
		return sleep.Reading{}, false
	}
	ahi, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return sleep.Reading{}, false
	}

	return sleep.Reading{
		Lower:      serialLower,
		Upper:      serialUpper,
		Value:      value,
		PeaksIn20:  peaks,
		BreathRate: rate,
		Apneas:     apneas,
		Hypopneas:  hypopneas,
		Peak:       peakFlag(value),
		AHI:        ahi,
	}, true
}
