package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/opd-ai/remoteiq/interfaces"
	"github.com/opd-ai/remoteiq/limits"
	"github.com/opd-ai/remoteiq/receiver"
	"github.com/opd-ai/remoteiq/sender"
	"github.com/opd-ai/remoteiq/transport"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidLogLevel indicates an unknown logging level.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates a format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrInvalidOutput indicates an unusable output section.
	ErrInvalidOutput = errors.New("invalid output config")
)

// Config is the complete configuration file.
type Config struct {
	Receiver ReceiverConfig `yaml:"receiver"`
	Sender   SenderConfig   `yaml:"sender"`
	Link     LinkConfig     `yaml:"link"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Output   OutputConfig   `yaml:"output"`
}

// ReceiverConfig is the receiving side.
type ReceiverConfig struct {
	Address        string `yaml:"address"`
	MulticastGroup string `yaml:"multicast_group"`
	Interface      string `yaml:"interface"`
	ReadBuffer     int    `yaml:"read_buffer"`
	BatchSize      int    `yaml:"batch_size"`
	RingSize       int    `yaml:"ring_size"`
	JitterDepth    int    `yaml:"jitter_depth"`
	BlockBytes     int    `yaml:"block_bytes"`
	OriginalBlocks int    `yaml:"original_blocks"`
	RxBits         int    `yaml:"rx_bits"`
	PoolSize       int    `yaml:"pool_size"`
}

// SenderConfig is the sending side.
type SenderConfig struct {
	Address         string  `yaml:"address"`
	MulticastTTL    int     `yaml:"multicast_ttl"`
	Interface       string  `yaml:"interface"`
	BlockBytes      int     `yaml:"block_bytes"`
	OriginalBlocks  int     `yaml:"original_blocks"`
	RecoveryBlocks  int     `yaml:"recovery_blocks"`
	SampleBytes     int     `yaml:"sample_bytes"`
	CenterFrequency uint64  `yaml:"center_frequency"`
	SampleRate      uint32  `yaml:"sample_rate"`
	DeviceIndex     uint16  `yaml:"device_index"`
	ChannelIndex    uint16  `yaml:"channel_index"`
	ToneHz          float64 `yaml:"tone_hz"`
	Amplitude       float64 `yaml:"amplitude"`
}

// LinkConfig adds artificial impairments on the sending side.
type LinkConfig struct {
	DropRate      float64 `yaml:"drop_rate"`
	DuplicateRate float64 `yaml:"duplicate_rate"`
	ReorderWindow int     `yaml:"reorder_window"`
	Seed          int64   `yaml:"seed"`
}

// MetricsConfig is the telemetry HTTP endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	StatsPath string `yaml:"stats_path"`
}

// LoggingConfig selects logrus level and formatter.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OutputConfig is where the receiver binary writes samples.
type OutputConfig struct {
	// Path is a file name, "-" for stdout or empty to discard samples.
	Path string `yaml:"path"`

	// Compress wraps the output in a zstd stream.
	Compress bool `yaml:"compress"`

	// Level is the zstd encoder level, 1 (fastest) to 4 (best).
	Level int `yaml:"level"`

	// ChunkSamples is the number of samples pulled per tick.
	ChunkSamples int `yaml:"chunk_samples"`
}

// Default returns the built in configuration.
func Default() *Config {
	rx := receiver.DefaultConfig()
	return &Config{
		Receiver: ReceiverConfig{
			Address:        rx.Listen.Address,
			ReadBuffer:     rx.Listen.ReadBuffer,
			BatchSize:      rx.Listen.BatchSize,
			RingSize:       rx.RingSize,
			JitterDepth:    rx.JitterDepth,
			BlockBytes:     rx.BlockBytes,
			OriginalBlocks: rx.OriginalBlocks,
			RxBits:         rx.RxBits,
		},
		Sender: SenderConfig{
			Address:         "127.0.0.1:9090",
			BlockBytes:      wire.DefaultBlockBytes,
			OriginalBlocks:  wire.DefaultOriginalBlocks,
			RecoveryBlocks:  8,
			SampleBytes:     2,
			CenterFrequency: 435_000_000,
			SampleRate:      48_000,
			ToneHz:          1_000,
			Amplitude:       0.5,
		},
		Metrics: MetricsConfig{
			Listen:    "127.0.0.1:9091",
			Path:      "/metrics",
			StatsPath: "/stats",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Level:        1,
			ChunkSamples: 4096,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Load",
		"path":     path,
	}).Debug("Configuration loaded")

	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	rx := c.ReceiverSettings()
	if err := rx.Validate(); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	tx := c.SenderSettings()
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	if c.Sender.Amplitude < 0 || c.Sender.Amplitude > 1 {
		return fmt.Errorf("sender: %w: amplitude %v not in [0, 1]", limits.ErrOutOfRange, c.Sender.Amplitude)
	}

	link := c.LinkSettings()
	if err := link.Validate(); err != nil {
		return fmt.Errorf("link: %w", err)
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Output.Compress && (c.Output.Level < 1 || c.Output.Level > 4) {
		return fmt.Errorf("%w: zstd level %d not in [1, 4]", ErrInvalidOutput, c.Output.Level)
	}
	if c.Output.ChunkSamples < 1 {
		return fmt.Errorf("%w: chunk samples %d", ErrInvalidOutput, c.Output.ChunkSamples)
	}

	return nil
}

// ReceiverSettings converts the receiver section.
func (c *Config) ReceiverSettings() receiver.Config {
	r := c.Receiver
	return receiver.Config{
		Listen: transport.ListenConfig{
			Address:        r.Address,
			MulticastGroup: r.MulticastGroup,
			Interface:      r.Interface,
			ReadBuffer:     r.ReadBuffer,
			BatchSize:      r.BatchSize,
		},
		RingSize:       r.RingSize,
		JitterDepth:    r.JitterDepth,
		BlockBytes:     r.BlockBytes,
		OriginalBlocks: r.OriginalBlocks,
		RxBits:         r.RxBits,
		PoolSize:       r.PoolSize,
	}
}

// SenderSettings converts the sender section. Samples are generated at 16
// bits.
func (c *Config) SenderSettings() sender.Config {
	s := c.Sender
	return sender.Config{
		BlockBytes:      s.BlockBytes,
		OriginalBlocks:  s.OriginalBlocks,
		RecoveryBlocks:  s.RecoveryBlocks,
		SampleBytes:     s.SampleBytes,
		InputBits:       16,
		CenterFrequency: s.CenterFrequency,
		SampleRate:      s.SampleRate,
		DeviceIndex:     s.DeviceIndex,
		ChannelIndex:    s.ChannelIndex,
	}
}

// SenderTransport converts the sender socket settings.
func (c *Config) SenderTransport() transport.SenderConfig {
	return transport.SenderConfig{
		Address:      c.Sender.Address,
		MulticastTTL: c.Sender.MulticastTTL,
		Interface:    c.Sender.Interface,
	}
}

// LinkSettings converts the link section.
func (c *Config) LinkSettings() interfaces.LinkConfig {
	l := c.Link
	cfg := interfaces.LinkConfig{
		DropRate:      l.DropRate,
		DuplicateRate: l.DuplicateRate,
		ReorderWindow: l.ReorderWindow,
		Seed:          l.Seed,
	}
	cfg.UseSimulation = cfg.Impaired()
	return cfg
}

// ApplyLogging configures the standard logrus logger.
func (c *Config) ApplyLogging() error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	logrus.SetLevel(level)

	switch c.Logging.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	return nil
}
