package ble

import (
	"context"
	"errors"

	"github.com/go-ble/ble"
)

// Advertisement is one observed BLE advertisement.
type Advertisement struct {
	Name        string
	Address     string
	RSSI        int
	Connectable bool
}

// Scan reports every advertisement seen to fn until ctx is cancelled. Duplicates are allowed so
// callers can track RSSI and name changes over time.
func Scan(ctx context.Context, fn func(Advertisement)) error {
	d, err := sharedDevice()
	if err != nil {
		return err
	}
	err = d.Scan(ctx, true, func(a ble.Advertisement) {
		fn(Advertisement{
			Name:        a.LocalName(),
			Address:     a.Addr().String(),
			RSSI:        a.RSSI(),
			Connectable: a.Connectable(),
		})
	})
	// Cancellation is how scans end.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
