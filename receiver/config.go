package receiver

import (
	"fmt"

	"github.com/opd-ai/remoteiq/jitter"
	"github.com/opd-ai/remoteiq/limits"
	"github.com/opd-ai/remoteiq/sample"
	"github.com/opd-ai/remoteiq/transport"
	"github.com/opd-ai/remoteiq/wire"
)

// DefaultRingSize is the default number of reassembly slots.
const DefaultRingSize = 4

// Config holds the receiver parameters.
type Config struct {
	// Listen describes the socket. DatagramSize is derived from BlockBytes.
	Listen transport.ListenConfig

	RingSize       int
	JitterDepth    int
	BlockBytes     int
	OriginalBlocks int

	// RxBits is the width of samples returned by ReadSample: 16 or 24.
	RxBits int

	// PoolSize is the number of idle frames kept for reuse, 0 to derive it
	// from RingSize and JitterDepth.
	PoolSize int
}

// DefaultConfig returns the configuration of a standard remote input.
func DefaultConfig() Config {
	return Config{
		Listen: transport.ListenConfig{
			Address:    "0.0.0.0:9090",
			ReadBuffer: transport.DefaultReadBuffer,
			BatchSize:  transport.DefaultBatchSize,
		},
		RingSize:       DefaultRingSize,
		JitterDepth:    jitter.DefaultDepth,
		BlockBytes:     wire.DefaultBlockBytes,
		OriginalBlocks: wire.DefaultOriginalBlocks,
		RxBits:         sample.DefaultRxBits,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := limits.ValidateRingSize(c.RingSize); err != nil {
		return err
	}
	if err := limits.ValidateJitterDepth(c.JitterDepth); err != nil {
		return err
	}
	if err := limits.ValidateBlockBytes(c.BlockBytes); err != nil {
		return err
	}
	if err := limits.ValidateOriginalCount(c.OriginalBlocks); err != nil {
		return err
	}
	if c.RxBits != 16 && c.RxBits != 24 {
		return fmt.Errorf("%w: rx bits %d, want 16 or 24", limits.ErrSampleSize, c.RxBits)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("%w: pool size %d", limits.ErrOutOfRange, c.PoolSize)
	}
	return nil
}

func (c *Config) poolSize() int {
	if c.PoolSize > 0 {
		return c.PoolSize
	}
	return c.RingSize + c.JitterDepth + 2
}
