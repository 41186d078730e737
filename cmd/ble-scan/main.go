// ble-scan continuously scans for BLE peripherals and prints each one as it appears, to help
// find the indicator's MAC address before running dti-reader.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/matti125/dti-reader/internal/log"
	"github.com/matti125/dti-reader/pkg/connector/ble"
)

var (
	namePattern = flag.String("name", "", `Glob pattern to filter device names (e.g. "B-*")`)
	verbose     = flag.Bool("verbose", false, "Log debug detail to stderr")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.LevelDebug)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt)
		<-signalChan
		fmt.Fprintln(os.Stderr, "\nScan stopped by user.")
		cancel()
	}()

	fmt.Println("Starting continuous BLE device scanning...")
	seen := make(map[string]string)
	err := ble.Scan(ctx, func(a ble.Advertisement) {
		name := a.Name
		if name == "" {
			name = "Unknown"
		}
		if *namePattern != "" {
			if ok, _ := path.Match(*namePattern, name); !ok {
				return
			}
		}
		previous, known := seen[a.Address]
		switch {
		case !known:
			fmt.Printf("Detected device: Name: %s, Address: %s, RSSI: %d dBm\n", name, a.Address, a.RSSI)
			seen[a.Address] = name
		case previous != name:
			fmt.Printf("Updated device: Name: %s, Address: %s, RSSI: %d dBm\n", name, a.Address, a.RSSI)
			seen[a.Address] = name
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
