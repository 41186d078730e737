// Package serial implements the RS232-over-USB transport variant.
package serial

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/matti125/dti-reader/internal/log"
	"github.com/matti125/dti-reader/pkg/connector"
)

// The instrument's fixed line settings.
var mode = serial.Mode{
	BaudRate: 38400,
	DataBits: 8,
	Parity:   serial.NoParity,
	StopBits: serial.OneStopBit,
}

const readBufferSize = 64

// Port reads vendor frames from a serial character device.
type Port struct {
	port   serial.Port
	device string
	closed bool
}

// Open opens the named character device with the instrument's line settings. Failure here is an
// unrecoverable startup error unless the caller has connected before.
func Open(device string) (*Port, error) {
	port, err := serial.Open(device, &mode)
	if err != nil {
		return nil, fmt.Errorf("serial: failed to open %s: %w", device, err)
	}
	return newPort(port, device), nil
}

func newPort(port serial.Port, device string) *Port {
	return &Port{port: port, device: device}
}

// ReadChunk performs one bounded-time read and returns whatever bytes were available. A
// zero-byte read means the timeout elapsed, which is not an error. Read failures on an open
// port indicate the device went away and are reported as a temporary disconnect.
func (p *Port) ReadChunk(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("serial: failed to set read timeout: %w", err)
	}

	buf := make([]byte, readBufferSize)
	n, err := p.port.Read(buf)
	if err != nil {
		log.Debug("serial: read on %s failed: %v", p.device, err)
		return nil, fmt.Errorf("serial: %w", connector.ErrDisconnected)
	}
	if n == 0 {
		return nil, nil
	}
	return buf[:n], nil
}

// Close releases the character device.
func (p *Port) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.port.Close()
}
