package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/remoteiq/interfaces"
	"github.com/opd-ai/remoteiq/limits"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "remoteiq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	rx := cfg.ReceiverSettings()
	assert.Equal(t, 4, rx.RingSize)
	assert.Equal(t, 20, rx.JitterDepth)
	assert.Equal(t, 1016, rx.BlockBytes)
	assert.Equal(t, 128, rx.OriginalBlocks)
	assert.Equal(t, 24, rx.RxBits)
	assert.False(t, cfg.LinkSettings().UseSimulation)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
receiver:
  address: 0.0.0.0:5000
  multicast_group: 239.255.10.1
  ring_size: 8
sender:
  recovery_blocks: 16
link:
  drop_rate: 0.05
  seed: 9
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", cfg.Receiver.Address)
	assert.Equal(t, "239.255.10.1", cfg.ReceiverSettings().Listen.MulticastGroup)
	assert.Equal(t, 8, cfg.Receiver.RingSize)
	assert.Equal(t, 20, cfg.Receiver.JitterDepth, "default kept")
	assert.Equal(t, 16, cfg.SenderSettings().RecoveryBlocks)

	link := cfg.LinkSettings()
	assert.True(t, link.UseSimulation)
	assert.Equal(t, interfaces.LinkConfig{UseSimulation: true, DropRate: 0.05, Seed: 9}, link)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "receiver: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "receiver:\n  ring_size: 3\n"))
	assert.ErrorIs(t, err, limits.ErrNotPowerOfTwo)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: ErrInvalidLogLevel},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: ErrInvalidLogFormat},
		{name: "bad zstd level", modify: func(c *Config) { c.Output.Compress = true; c.Output.Level = 9 }, wantErr: ErrInvalidOutput},
		{name: "no chunk", modify: func(c *Config) { c.Output.ChunkSamples = 0 }, wantErr: ErrInvalidOutput},
		{name: "bad drop rate", modify: func(c *Config) { c.Link.DropRate = 2 }, wantErr: interfaces.ErrInvalidRate},
		{name: "bad rx bits", modify: func(c *Config) { c.Receiver.RxBits = 12 }, wantErr: limits.ErrSampleSize},
		{name: "bad sample bytes", modify: func(c *Config) { c.Sender.SampleBytes = 3 }, wantErr: limits.ErrSampleSize},
		{name: "bad amplitude", modify: func(c *Config) { c.Sender.Amplitude = 1.5 }, wantErr: limits.ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestApplyLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.SetFormatter(logrus.StandardLogger().Formatter)

	cfg := Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"
	require.NoError(t, cfg.ApplyLogging())
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)
}
