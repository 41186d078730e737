// Package connector defines the transport contract shared by the serial and BLE links to the
// instrument. A Port delivers raw byte chunks as they arrive; framing and decoding are the
// protocol package's concern.
package connector

import (
	"context"
	"errors"
	"time"
)

// Port is one open link to the instrument.
type Port interface {
	// ReadChunk returns the next raw bytes from the instrument, waiting up to timeout. A nil
	// chunk with a nil error means the timeout elapsed with no data, which is not a failure.
	// The returned error reports transport-level problems only; see Temporary for whether a
	// reconnect can recover it.
	ReadChunk(ctx context.Context, timeout time.Duration) ([]byte, error)

	// Close releases the underlying OS or radio resource. Repeated calls must be idempotent.
	Close() error
}

// Dialer opens a Port. The poller redials through the same Dialer after a lost connection.
type Dialer interface {
	Dial(ctx context.Context) (Port, error)
}

// DialFunc adapts a function to the Dialer interface.
type DialFunc func(ctx context.Context) (Port, error)

func (f DialFunc) Dial(ctx context.Context) (Port, error) {
	return f(ctx)
}

// Error exposes methods useful for categorizing transport errors.
type Error interface {
	error

	// Temporary returns true if the error might be the result of a transient condition, such as
	// a dropped link, that a reconnect can recover from.
	Temporary() bool
}

// TransportError wraps a transport failure with its retry category.
type TransportError struct {
	Err       error
	Transient bool
}

// NewError returns a TransportError with a fixed message.
func NewError(message string, temporary bool) error {
	return &TransportError{Err: errors.New(message), Transient: temporary}
}

// ErrDisconnected indicates mid-stream link loss. The poller recovers it with a
// bounded-backoff reconnect.
var ErrDisconnected = NewError("connection to the instrument was lost", true)

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Temporary() bool {
	return e.Transient
}

// Temporary returns true if err indicates a transient transport condition.
func Temporary(err error) bool {
	var transportErr Error
	if errors.As(err, &transportErr) {
		return transportErr.Temporary()
	}
	return false
}
