// Package protocol implements the indicator's byte protocol: assembling raw transport chunks
// into complete frames and decoding frames into displacement readings.
package protocol

import (
	"errors"
	"fmt"
)

// Unit is the display unit the instrument was set to when a sample was captured.
type Unit string

const (
	UnitMillimeter Unit = "mm"
	UnitInch       Unit = "inch"
)

// Reading is one decoded displacement sample. Immutable once constructed.
type Reading struct {
	Displacement float64
	Unit         Unit
}

func (r Reading) String() string {
	return fmt.Sprintf("%.3f %s", r.Displacement, r.Unit)
}

// DecodeErrorKind categorizes why a frame could not be decoded.
type DecodeErrorKind int

const (
	// BadFormat indicates the frame has the wrong length, header, or a field value outside the
	// vendor encoding.
	BadFormat DecodeErrorKind = iota
	// BadChecksum indicates the frame checksum did not match its contents.
	BadChecksum
	// UnitUnsupported indicates the unit flag byte carries a value this decoder does not know.
	UnitUnsupported
)

func (k DecodeErrorKind) String() string {
	switch k {
	case BadFormat:
		return "bad_format"
	case BadChecksum:
		return "bad_checksum"
	case UnitUnsupported:
		return "unit_unsupported"
	}
	return "unknown"
}

// DecodeError reports a single undecodable frame. Decode errors are never fatal to a stream:
// the caller drops the sample and continues.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func newDecodeError(kind DecodeErrorKind, format string, a ...interface{}) error {
	return &DecodeError{Kind: kind, Err: fmt.Errorf(format, a...)}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrorKind returns the decode error category of err, or (0, false) if err is not a DecodeError.
func ErrorKind(err error) (DecodeErrorKind, bool) {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Kind, true
	}
	return 0, false
}
