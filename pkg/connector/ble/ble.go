// Package ble implements the Bluetooth Low Energy transport variant. The instrument pushes
// each sample as a notification on a vendor characteristic; ReadChunk hands those payloads to
// the caller one at a time.
package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"

	"github.com/matti125/dti-reader/internal/log"
	"github.com/matti125/dti-reader/pkg/connector"
)

// MeasurementCharacteristicUUID is the characteristic the instrument notifies samples on.
const MeasurementCharacteristicUUID = "0000ff00-0000-1000-8000-00805f9b34fb"

// inboxSize is the number of notifications queued between reads. The instrument notifies a few
// times per second at most, so a small queue suffices; overflow drops the oldest-unread data.
const inboxSize = 8

var (
	// The HCI socket can only be opened once per process, so all connections and scans share
	// one device.
	device ble.Device
	mu     sync.Mutex
)

func sharedDevice() (ble.Device, error) {
	mu.Lock()
	defer mu.Unlock()
	if device != nil {
		return device, nil
	}
	d, err := newDevice()
	if err != nil {
		return nil, fmt.Errorf("ble: failed to open bluetooth device: %w", err)
	}
	device = d
	return device, nil
}

// Connection is an open BLE session with the instrument, subscribed to its measurement
// characteristic.
type Connection struct {
	addr   string
	client ble.Client
	char   *ble.Characteristic
	inbox  chan []byte

	closeOnce sync.Once
	closeErr  error
}

// Connect dials the instrument at the given MAC address and subscribes to measurement
// notifications. The context bounds the dial; pass a context with a deadline to limit how long
// scanning for the peripheral may take.
func Connect(ctx context.Context, addr string) (*Connection, error) {
	d, err := sharedDevice()
	if err != nil {
		return nil, err
	}

	client, err := d.Dial(ctx, ble.NewAddr(addr))
	if err != nil {
		return nil, fmt.Errorf("ble: failed to connect to %s: %w", addr, err)
	}

	char, err := findMeasurementCharacteristic(client)
	if err != nil {
		if cerr := client.CancelConnection(); cerr != nil {
			log.Warning("ble: failed to close connection to %s: %v", addr, cerr)
		}
		return nil, err
	}

	conn := &Connection{
		addr:   addr,
		client: client,
		char:   char,
		inbox:  make(chan []byte, inboxSize),
	}
	if err := client.Subscribe(char, false, conn.rx); err != nil {
		if cerr := client.CancelConnection(); cerr != nil {
			log.Warning("ble: failed to close connection to %s: %v", addr, cerr)
		}
		return nil, fmt.Errorf("ble: failed to subscribe to notifications: %w", err)
	}
	log.Info("ble: connected to %s and subscribed to notifications", addr)
	return conn, nil
}

func findMeasurementCharacteristic(client ble.Client) (*ble.Characteristic, error) {
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		return nil, fmt.Errorf("ble: failed to discover services: %w", err)
	}
	uuid := ble.MustParse(MeasurementCharacteristicUUID)
	for _, service := range profile.Services {
		for _, char := range service.Characteristics {
			if char.UUID.Equal(uuid) {
				return char, nil
			}
		}
	}
	return nil, fmt.Errorf("ble: device has no characteristic %s; is this the right instrument?", MeasurementCharacteristicUUID)
}

// rx runs on the BLE stack's goroutine for every notification.
func (c *Connection) rx(payload []byte) {
	log.Debug("ble: RX %02x", payload)
	chunk := make([]byte, len(payload))
	copy(chunk, payload)
	select {
	case c.inbox <- chunk:
	default:
		log.Warning("ble: inbox full, dropping notification")
	}
}

// ReadChunk returns the next notification payload, a nil chunk if timeout elapses first, or a
// temporary transport error if the peripheral disconnected.
func (c *Connection) ReadChunk(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case chunk := <-c.inbox:
		return chunk, nil
	case <-c.client.Disconnected():
		return nil, fmt.Errorf("ble: %w", connector.ErrDisconnected)
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unsubscribes and tears down the session. The shared bluetooth device stays open for
// reconnects.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		if err := c.client.Unsubscribe(c.char, false); err != nil {
			log.Debug("ble: failed to unsubscribe from %s: %v", c.addr, err)
		}
		c.closeErr = c.client.CancelConnection()
	})
	return c.closeErr
}
