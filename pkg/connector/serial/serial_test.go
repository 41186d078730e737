package serial

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.bug.st/serial"

	"github.com/matti125/dti-reader/pkg/connector"
)

// mockSerialPort implements serial.Port with canned data, in the spirit of loopback testing
// against a real device.
type mockSerialPort struct {
	buf          []byte
	errorMessage string
	readTimeout  time.Duration
	closed       bool
}

func (m *mockSerialPort) Read(p []byte) (n int, err error) {
	if m.errorMessage != "" {
		return 0, fmt.Errorf("error %q", m.errorMessage)
	}
	byteCount := copy(p, m.buf)
	m.buf = m.buf[byteCount:]
	return byteCount, nil
}

func (m *mockSerialPort) SetReadTimeout(t time.Duration) error {
	m.readTimeout = t
	return nil
}

func (m *mockSerialPort) Close() error {
	m.closed = true
	return nil
}

func (m *mockSerialPort) SetMode(mode *serial.Mode) error                      { return nil }
func (m *mockSerialPort) Write(p []byte) (n int, err error)                    { return 0, nil }
func (m *mockSerialPort) Drain() error                                         { return nil }
func (m *mockSerialPort) ResetInputBuffer() error                              { return nil }
func (m *mockSerialPort) ResetOutputBuffer() error                             { return nil }
func (m *mockSerialPort) SetDTR(dtr bool) error                                { return nil }
func (m *mockSerialPort) SetRTS(rts bool) error                                { return nil }
func (m *mockSerialPort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return nil, nil }
func (m *mockSerialPort) Break(time.Duration) error                            { return nil }

func TestReadChunkReturnsAvailableBytes(t *testing.T) {
	mock := &mockSerialPort{buf: []byte{0xA5, 0x01, 0x02}}
	port := newPort(mock, "/dev/ttyUSB0")

	chunk, err := port.ReadChunk(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("ReadChunk failed: %s", err)
	}
	if len(chunk) != 3 || chunk[0] != 0xA5 {
		t.Errorf("chunk = %02x, want a5 01 02", chunk)
	}
	if mock.readTimeout != 100*time.Millisecond {
		t.Errorf("read timeout = %s, want 100ms", mock.readTimeout)
	}
}

func TestReadChunkTimeoutIsNotAnError(t *testing.T) {
	port := newPort(&mockSerialPort{}, "/dev/ttyUSB0")
	chunk, err := port.ReadChunk(context.Background(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("timeout reported as error: %s", err)
	}
	if chunk != nil {
		t.Errorf("chunk = %02x, want none", chunk)
	}
}

func TestReadChunkReportsDisconnectAsTemporary(t *testing.T) {
	port := newPort(&mockSerialPort{errorMessage: "device gone"}, "/dev/ttyUSB0")
	_, err := port.ReadChunk(context.Background(), 10*time.Millisecond)
	if err == nil {
		t.Fatal("read failure went unreported")
	}
	if !connector.Temporary(err) {
		t.Errorf("error %v not marked temporary; the poller would treat it as fatal", err)
	}
}

func TestReadChunkHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	port := newPort(&mockSerialPort{buf: []byte{0x01}}, "/dev/ttyUSB0")
	if _, err := port.ReadChunk(ctx, time.Second); err == nil {
		t.Error("read on a cancelled context succeeded")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	mock := &mockSerialPort{}
	port := newPort(mock, "/dev/ttyUSB0")
	if err := port.Close(); err != nil {
		t.Fatalf("Close failed: %s", err)
	}
	if err := port.Close(); err != nil {
		t.Fatalf("second Close failed: %s", err)
	}
	if !mock.closed {
		t.Error("underlying port was never closed")
	}
}
