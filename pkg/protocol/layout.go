package protocol

import (
	"fmt"
	"math"
)

// Unit flag values used by the instrument.
const (
	unitFlagMillimeter = 0x00
	unitFlagInch       = 0x01
)

// Sign byte values. Anything else is a malformed frame.
const (
	signPositive = 0x00
	signNegative = 0x01
)

// FrameLayout describes the vendor's packet format as a value table rather than hard-coded
// offsets, so firmware variants can be supported from configuration. The default values were
// captured from observed device traffic: an 8-byte frame whose last four bytes are a 24-bit
// big-endian magnitude in instrument counts followed by a sign byte.
type FrameLayout struct {
	// Length is the fixed frame length in bytes.
	Length int `yaml:"length"`
	// Header is the first byte of every frame. The assembler resynchronizes on it.
	Header byte `yaml:"header"`
	// UnitOffset is the position of the unit flag byte (0x00 mm, 0x01 inch).
	UnitOffset int `yaml:"unit_offset"`
	// ChecksumOffset is the position of the XOR checksum, or -1 if the firmware emits none.
	// The checksum covers every frame byte except itself.
	ChecksumOffset int `yaml:"checksum_offset"`
	// MagnitudeOffset is the position of the 24-bit big-endian magnitude field.
	MagnitudeOffset int `yaml:"magnitude_offset"`
	// SignOffset is the position of the sign byte.
	SignOffset int `yaml:"sign_offset"`
	// CountsPerMM and CountsPerInch convert the magnitude field to the display unit.
	CountsPerMM   float64 `yaml:"counts_per_mm"`
	CountsPerInch float64 `yaml:"counts_per_inch"`
}

// DefaultLayout is the packet format of the supported raster indicators: 1 count = 1 µm in
// metric mode and 0.0001 in in imperial mode.
var DefaultLayout = FrameLayout{
	Length:          8,
	Header:          0xA5,
	UnitOffset:      1,
	ChecksumOffset:  2,
	MagnitudeOffset: 4,
	SignOffset:      7,
	CountsPerMM:     1000,
	CountsPerInch:   10000,
}

const magnitudeWidth = 3 // bytes

// Validate reports whether the layout is internally consistent. Offsets must fall inside the
// frame and must not overlap the magnitude field.
func (l FrameLayout) Validate() error {
	if l.Length < magnitudeWidth+2 {
		return fmt.Errorf("frame length %d cannot hold a magnitude, sign, and header", l.Length)
	}
	offsets := map[string]int{
		"unit": l.UnitOffset,
		"sign": l.SignOffset,
	}
	if l.ChecksumOffset >= 0 {
		offsets["checksum"] = l.ChecksumOffset
	}
	for name, off := range offsets {
		if off <= 0 || off >= l.Length {
			return fmt.Errorf("%s offset %d outside frame of length %d", name, off, l.Length)
		}
		if off >= l.MagnitudeOffset && off < l.MagnitudeOffset+magnitudeWidth {
			return fmt.Errorf("%s offset %d overlaps the magnitude field", name, off)
		}
	}
	if l.MagnitudeOffset < 1 || l.MagnitudeOffset+magnitudeWidth > l.Length {
		return fmt.Errorf("magnitude offset %d outside frame of length %d", l.MagnitudeOffset, l.Length)
	}
	if l.CountsPerMM <= 0 || l.CountsPerInch <= 0 {
		return fmt.Errorf("scale factors must be positive")
	}
	return nil
}

// checksum XORs every frame byte except the checksum byte itself, so that any single corrupted
// byte is detectable.
func (l FrameLayout) checksum(frame []byte) byte {
	var sum byte
	for i, b := range frame {
		if i == l.ChecksumOffset {
			continue
		}
		sum ^= b
	}
	return sum
}

// Decode interprets one complete frame as a Reading. It is pure: identical input bytes always
// yield an identical Reading or an identical error.
func (l FrameLayout) Decode(frame []byte) (Reading, error) {
	if len(frame) != l.Length {
		return Reading{}, newDecodeError(BadFormat, "frame is %d bytes, want %d", len(frame), l.Length)
	}
	if frame[0] != l.Header {
		return Reading{}, newDecodeError(BadFormat, "frame header %#02x, want %#02x", frame[0], l.Header)
	}
	if l.ChecksumOffset >= 0 {
		if got, want := frame[l.ChecksumOffset], l.checksum(frame); got != want {
			return Reading{}, newDecodeError(BadChecksum, "checksum %#02x, want %#02x", got, want)
		}
	}

	var unit Unit
	var scale float64
	switch frame[l.UnitOffset] {
	case unitFlagMillimeter:
		unit, scale = UnitMillimeter, l.CountsPerMM
	case unitFlagInch:
		unit, scale = UnitInch, l.CountsPerInch
	default:
		return Reading{}, newDecodeError(UnitUnsupported, "unit flag %#02x", frame[l.UnitOffset])
	}

	counts := uint32(frame[l.MagnitudeOffset])<<16 |
		uint32(frame[l.MagnitudeOffset+1])<<8 |
		uint32(frame[l.MagnitudeOffset+2])
	displacement := float64(counts) / scale
	switch frame[l.SignOffset] {
	case signPositive:
	case signNegative:
		displacement = -displacement
	default:
		return Reading{}, newDecodeError(BadFormat, "sign byte %#02x", frame[l.SignOffset])
	}

	return Reading{Displacement: displacement, Unit: unit}, nil
}

// Encode builds the frame that decodes to r. It is the inverse of Decode and exists for test
// fixtures and captured-traffic validation.
func (l FrameLayout) Encode(r Reading) ([]byte, error) {
	var scale float64
	var unitFlag byte
	switch r.Unit {
	case UnitMillimeter:
		unitFlag, scale = unitFlagMillimeter, l.CountsPerMM
	case UnitInch:
		unitFlag, scale = unitFlagInch, l.CountsPerInch
	default:
		return nil, fmt.Errorf("unit %q cannot be encoded", r.Unit)
	}

	counts := int64(math.Round(math.Abs(r.Displacement) * scale))
	if counts > 0xFFFFFF {
		return nil, fmt.Errorf("displacement %v out of range", r.Displacement)
	}

	frame := make([]byte, l.Length)
	frame[0] = l.Header
	frame[l.UnitOffset] = unitFlag
	frame[l.MagnitudeOffset] = byte(counts >> 16)
	frame[l.MagnitudeOffset+1] = byte(counts >> 8)
	frame[l.MagnitudeOffset+2] = byte(counts)
	if math.Signbit(r.Displacement) {
		frame[l.SignOffset] = signNegative
	}
	if l.ChecksumOffset >= 0 {
		frame[l.ChecksumOffset] = l.checksum(frame)
	}
	return frame, nil
}
