// Package poller drives the read loop: it owns the transport handle, paces sampling at a fixed
// wall-clock interval, and reconnects after link loss without ever letting a single bad sample
// terminate the stream.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matti125/dti-reader/internal/log"
	"github.com/matti125/dti-reader/pkg/connector"
	"github.com/matti125/dti-reader/pkg/output"
	"github.com/matti125/dti-reader/pkg/protocol"
)

// State is the poller's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// Config is the poller's immutable runtime configuration.
type Config struct {
	// Interval is the target time between samples. Each cycle sleeps the remainder of the
	// interval after read, decode, and emit, so the effective rate tracks Interval regardless
	// of decode cost.
	Interval time.Duration

	// ReadTimeout bounds each transport read. Zero means Interval is used, which keeps
	// worst-case loop latency at one interval.
	ReadTimeout time.Duration

	// Backoff is the wait before a reconnect attempt. Zero means one second.
	Backoff time.Duration

	// MaxRetries caps consecutive failed reconnect attempts; exhausting it ends the run with
	// the last dial error. Zero retries forever.
	MaxRetries int

	// Deadman forces a reconnect when no bytes have arrived for this long. Zero disables it.
	// Useful on BLE, where a wedged peripheral can hold the link open without notifying.
	Deadman time.Duration

	// Period ends the run cleanly after this much total time. Zero runs until cancelled.
	Period time.Duration

	// Layout is the vendor frame table. The zero value selects protocol.DefaultLayout.
	Layout protocol.FrameLayout
}

// Poller reads the instrument on a fixed cadence and forwards decoded readings to a sink.
// A Poller owns its Port and assembler buffer exclusively; it is not safe for concurrent use,
// but independent Pollers can coexist.
type Poller struct {
	cfg   Config
	dial  connector.Dialer
	sink  output.Sink
	asm   *protocol.Assembler
	state State

	port          connector.Port
	connectedOnce bool
}

// New validates cfg and returns a Poller that dials through dial and emits to sink.
func New(cfg Config, dial connector.Dialer, sink output.Sink) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be positive")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = cfg.Interval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Layout == (protocol.FrameLayout{}) {
		cfg.Layout = protocol.DefaultLayout
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("poller: invalid frame layout: %w", err)
	}
	if dial == nil || sink == nil {
		return nil, errors.New("poller: dialer and sink are required")
	}
	return &Poller{
		cfg:  cfg,
		dial: dial,
		sink: sink,
		asm:  protocol.NewAssembler(cfg.Layout),
	}, nil
}

// State returns the current connection state.
func (p *Poller) State() State {
	return p.state
}

// Run polls until ctx is cancelled, the configured period elapses, or the consumer goes away;
// all three return nil. It returns an error if the device cannot be opened on the first
// attempt, if the reconnect budget is exhausted, or on an unrecoverable transport failure.
func (p *Poller) Run(ctx context.Context) error {
	if p.cfg.Period > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Period)
		defer cancel()
	}
	defer p.shutdown()

	retries := 0
	lastData := time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if p.port == nil {
			port, err := p.dial.Dial(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if !p.connectedOnce {
					return fmt.Errorf("failed to open device: %w", err)
				}
				retries++
				if p.cfg.MaxRetries > 0 && retries >= p.cfg.MaxRetries {
					return fmt.Errorf("giving up after %d reconnect attempts: %w", retries, err)
				}
				log.Warning("reconnect attempt failed: %v", err)
				if !sleep(ctx, p.cfg.Backoff) {
					return nil
				}
				continue
			}
			p.port = port
			p.state = StateConnected
			p.connectedOnce = true
			retries = 0
			lastData = time.Now()
			p.asm.Reset()
			log.Info("connected")
		}

		cycleStart := time.Now()
		chunk, err := p.port.ReadChunk(ctx, p.cfg.ReadTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if connector.Temporary(err) {
				log.Warning("lost connection: %v", err)
				p.disconnect()
				if !sleep(ctx, p.cfg.Backoff) {
					return nil
				}
				continue
			}
			return fmt.Errorf("transport failed: %w", err)
		}

		if len(chunk) > 0 {
			lastData = time.Now()
		}
		for _, frame := range p.asm.Feed(chunk) {
			reading, err := p.cfg.Layout.Decode(frame)
			if err != nil {
				log.Debug("dropping sample %02x: %v", frame, err)
				continue
			}
			if err := p.sink.Emit(reading); err != nil {
				if errors.Is(err, output.ErrPipeClosed) {
					log.Info("consumer went away, stopping")
					return nil
				}
				return fmt.Errorf("emit failed: %w", err)
			}
		}

		if p.cfg.Deadman > 0 && time.Since(lastData) > p.cfg.Deadman {
			log.Warning("no data for %s, reconnecting", p.cfg.Deadman)
			p.disconnect()
			lastData = time.Now()
			continue
		}

		if remaining := p.cfg.Interval - time.Since(cycleStart); remaining > 0 {
			if !sleep(ctx, remaining) {
				return nil
			}
		}
	}
}

func (p *Poller) disconnect() {
	if p.port != nil {
		if err := p.port.Close(); err != nil {
			log.Debug("close failed: %v", err)
		}
		p.port = nil
	}
	p.state = StateDisconnected
	p.asm.Reset()
}

func (p *Poller) shutdown() {
	p.disconnect()
	p.state = StateShuttingDown
}

// sleep waits for d or until ctx is cancelled, reporting whether the full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
