// dti-reader streams displacement readings from a digital dial indicator to stdout, one line
// per sample, over a serial or BLE link.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matti125/dti-reader/internal/config"
	"github.com/matti125/dti-reader/internal/log"
	"github.com/matti125/dti-reader/pkg/connector"
	"github.com/matti125/dti-reader/pkg/connector/ble"
	"github.com/matti125/dti-reader/pkg/connector/serial"
	"github.com/matti125/dti-reader/pkg/output"
	"github.com/matti125/dti-reader/pkg/poller"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if cfg.Verbose {
		log.SetLevel(log.LevelDebug)
	}

	var dial connector.Dialer
	switch cfg.Transport {
	case config.TransportBLE:
		dial = connector.DialFunc(func(ctx context.Context) (connector.Port, error) {
			return ble.Connect(ctx, cfg.Device)
		})
	case config.TransportSerial:
		dial = connector.DialFunc(func(ctx context.Context) (connector.Port, error) {
			return serial.Open(cfg.Device)
		})
	}

	var sink output.Sink
	if cfg.JSON {
		sink = output.NewJSONSink(os.Stdout)
	} else {
		sink = output.NewTextSink(os.Stdout)
	}

	p, err := poller.New(poller.Config{
		Interval:    cfg.Interval,
		ReadTimeout: cfg.ReadTimeout,
		Backoff:     cfg.Backoff,
		MaxRetries:  cfg.Retries,
		Deadman:     cfg.Deadman,
		Period:      cfg.Period,
		Layout:      cfg.Layout,
	}, dial, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A consumer like `dti-reader --json | head` closing stdout must end the run cleanly, not
	// kill the process; with SIGPIPE ignored the write error reaches the poller instead.
	signal.Ignore(syscall.SIGPIPE)

	log.Info("reading %s over %s every %s", cfg.Device, cfg.Transport, cfg.Interval)
	if err := p.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
