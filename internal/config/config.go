// Package config assembles the runtime configuration from an optional YAML file and command
// line flags. Flags win over file values; the result is immutable for the process lifetime.
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matti125/dti-reader/pkg/protocol"
)

// TransportKind selects the transport variant explicitly rather than by runtime type
// inspection.
type TransportKind string

const (
	TransportSerial TransportKind = "serial"
	TransportBLE    TransportKind = "ble"
)

// Config is everything the reader needs for one run.
type Config struct {
	// Device is the serial device path or the BLE MAC address.
	Device string
	// Transport picks the variant. Empty means infer from the shape of Device.
	Transport TransportKind
	// Interval is the target time between samples.
	Interval time.Duration
	// ReadTimeout bounds each transport read; zero lets the poller derive it.
	ReadTimeout time.Duration
	// Period ends the run after this total duration; zero runs until interrupted.
	Period time.Duration
	// Deadman forces a reconnect after this long without data; zero disables it.
	Deadman time.Duration
	// Backoff is the wait between reconnect attempts; zero means the poller default.
	Backoff time.Duration
	// Retries caps consecutive failed reconnects; zero retries forever.
	Retries int
	// JSON selects JSON-line output instead of plain text.
	JSON bool
	// Verbose enables debug logging on stderr.
	Verbose bool
	// Layout overrides the vendor frame table for firmware variants.
	Layout protocol.FrameLayout
}

// fileConfig mirrors Config in the YAML file. Durations are plain seconds, matching the flag
// surface (e.g. interval: 0.5).
type fileConfig struct {
	Device    string                `yaml:"device"`
	Transport string                `yaml:"transport"`
	Interval  *float64              `yaml:"interval"`
	Timeout   *float64              `yaml:"read_timeout"`
	Period    *float64              `yaml:"period"`
	Deadman   *float64              `yaml:"deadman"`
	Backoff   *float64              `yaml:"backoff"`
	Retries   *int                  `yaml:"retries"`
	JSON      *bool                 `yaml:"json"`
	Verbose   *bool                 `yaml:"verbose"`
	Frame     *protocol.FrameLayout `yaml:"frame"`
}

var macPattern = regexp.MustCompile(`^(?i:[0-9a-f]{2}:){5}(?i:[0-9a-f]{2})$`)

const defaultInterval = 500 * time.Millisecond

// Load parses args (without the program name), merges in the YAML file named by --config if
// given, validates the result, and returns it.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("dti-reader", flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML configuration file")
	device := fs.String("device", "", "Serial device path or BLE MAC address")
	transport := fs.String("transport", "", "Transport kind: serial or ble (default: inferred from --device)")
	interval := fs.Float64("interval", defaultInterval.Seconds(), "Seconds between samples")
	timeout := fs.Float64("read-timeout", 0, "Seconds to wait for data each cycle (default: the interval)")
	period := fs.Float64("period", 0, "Stop after this many seconds (0 runs until interrupted)")
	deadman := fs.Float64("deadman", 0, "Reconnect after this many seconds without data (0 disables)")
	backoff := fs.Float64("backoff", 0, "Seconds between reconnect attempts")
	retries := fs.Int("retries", 0, "Give up after this many consecutive failed reconnects (0 retries forever)")
	jsonOut := fs.Bool("json", false, "Emit one JSON record per sample")
	verbose := fs.Bool("verbose", false, "Log debug detail to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{Interval: defaultInterval, Layout: protocol.DefaultLayout}
	if *configPath != "" {
		if err := cfg.mergeFile(*configPath); err != nil {
			return nil, err
		}
	}

	// Flags the user actually set override file values.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["device"] {
		cfg.Device = *device
	}
	if set["transport"] {
		cfg.Transport = TransportKind(*transport)
	}
	if set["interval"] {
		cfg.Interval = seconds(*interval)
	}
	if set["read-timeout"] {
		cfg.ReadTimeout = seconds(*timeout)
	}
	if set["period"] {
		cfg.Period = seconds(*period)
	}
	if set["deadman"] {
		cfg.Deadman = seconds(*deadman)
	}
	if set["backoff"] {
		cfg.Backoff = seconds(*backoff)
	}
	if set["retries"] {
		cfg.Retries = *retries
	}
	if set["json"] {
		cfg.JSON = *jsonOut
	}
	if set["verbose"] {
		cfg.Verbose = *verbose
	}

	if cfg.Transport == "" {
		cfg.Transport = inferTransport(cfg.Device)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if fc.Device != "" {
		c.Device = fc.Device
	}
	if fc.Transport != "" {
		c.Transport = TransportKind(fc.Transport)
	}
	if fc.Interval != nil {
		c.Interval = seconds(*fc.Interval)
	}
	if fc.Timeout != nil {
		c.ReadTimeout = seconds(*fc.Timeout)
	}
	if fc.Period != nil {
		c.Period = seconds(*fc.Period)
	}
	if fc.Deadman != nil {
		c.Deadman = seconds(*fc.Deadman)
	}
	if fc.Backoff != nil {
		c.Backoff = seconds(*fc.Backoff)
	}
	if fc.Retries != nil {
		c.Retries = *fc.Retries
	}
	if fc.JSON != nil {
		c.JSON = *fc.JSON
	}
	if fc.Verbose != nil {
		c.Verbose = *fc.Verbose
	}
	if fc.Frame != nil {
		c.Layout = *fc.Frame
	}
	return nil
}

// Validate checks configuration correctness without mutating it.
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("config: a device path or MAC address is required")
	}
	switch c.Transport {
	case TransportSerial, TransportBLE:
	default:
		return fmt.Errorf("config: unknown transport %q (want %q or %q)", c.Transport, TransportSerial, TransportBLE)
	}
	if c.Transport == TransportBLE && !macPattern.MatchString(c.Device) {
		return fmt.Errorf("config: %q is not a MAC address", c.Device)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("config: interval must be positive")
	}
	for name, d := range map[string]time.Duration{
		"read_timeout": c.ReadTimeout,
		"period":       c.Period,
		"deadman":      c.Deadman,
		"backoff":      c.Backoff,
	} {
		if d < 0 {
			return fmt.Errorf("config: %s must not be negative", name)
		}
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must not be negative")
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("config: invalid frame table: %w", err)
	}
	return nil
}

// inferTransport guesses the transport variant from the identifier's shape: a MAC address
// means BLE, anything else is a device path.
func inferTransport(device string) TransportKind {
	if macPattern.MatchString(device) {
		return TransportBLE
	}
	return TransportSerial
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
