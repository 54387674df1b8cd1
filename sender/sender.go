package sender

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/remoteiq/fec"
	"github.com/opd-ai/remoteiq/interfaces"
	"github.com/opd-ai/remoteiq/limits"
	"github.com/opd-ai/remoteiq/sample"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/sirupsen/logrus"
)

// Config describes the emitted stream.
type Config struct {
	BlockBytes     int
	OriginalBlocks int
	RecoveryBlocks int

	// SampleBytes is the wire size of one I or Q component: 1, 2 or 4.
	SampleBytes int

	// InputBits is the width of the samples passed to WriteSamples.
	InputBits int

	CenterFrequency uint64
	SampleRate      uint32
	DeviceIndex     uint16
	ChannelIndex    uint16

	// FirstFrameIndex is the index of the first frame sent.
	FirstFrameIndex uint32

	// Now stamps each frame; time.Now when nil.
	Now func() time.Time
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := limits.ValidateBlockBytes(c.BlockBytes); err != nil {
		return err
	}
	if err := limits.ValidateOriginalCount(c.OriginalBlocks); err != nil {
		return err
	}
	if err := limits.ValidateRecoveryCount(c.OriginalBlocks, c.RecoveryBlocks); err != nil {
		return err
	}
	if err := limits.ValidateSampleBytes(c.SampleBytes); err != nil {
		return err
	}
	if c.BlockBytes < 2*c.SampleBytes {
		return fmt.Errorf("%w: block of %d bytes holds no sample", limits.ErrOutOfRange, c.BlockBytes)
	}
	if c.InputBits < 1 || c.InputBits > 32 {
		return fmt.Errorf("%w: input bits %d", limits.ErrOutOfRange, c.InputBits)
	}
	return nil
}

// Stats are the sender counters.
type Stats struct {
	Frames    uint64
	Datagrams uint64
	Samples   uint64
	Errors    uint64
}

// Sender frames, protects and transmits samples.
type Sender struct {
	mu       sync.Mutex
	cfg      Config
	enc      *fec.Encoder
	out      interfaces.IDatagramSender
	shards   [][]byte
	datagram []byte
	perBlock int

	frameIndex uint32
	block      int
	offset     int
	stats      Stats
}

// New creates a sender writing datagrams to out.
func New(cfg Config, out interfaces.IDatagramSender) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sender config: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("datagram sender cannot be nil")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	enc, err := fec.NewEncoder(cfg.BlockBytes, cfg.OriginalBlocks, cfg.RecoveryBlocks)
	if err != nil {
		return nil, fmt.Errorf("failed to create FEC encoder: %w", err)
	}

	shards := make([][]byte, cfg.OriginalBlocks+cfg.RecoveryBlocks)
	for i := range shards {
		shards[i] = make([]byte, cfg.BlockBytes)
	}

	logrus.WithFields(logrus.Fields{
		"function":         "sender.New",
		"block_bytes":      cfg.BlockBytes,
		"original_blocks":  cfg.OriginalBlocks,
		"recovery_blocks":  cfg.RecoveryBlocks,
		"sample_bytes":     cfg.SampleBytes,
		"center_frequency": cfg.CenterFrequency,
		"sample_rate":      cfg.SampleRate,
	}).Info("Creating I/Q sender")

	return &Sender{
		cfg:        cfg,
		enc:        enc,
		out:        out,
		shards:     shards,
		datagram:   make([]byte, wire.DatagramSize(cfg.BlockBytes)),
		perBlock:   cfg.BlockBytes / (2 * cfg.SampleBytes),
		frameIndex: cfg.FirstFrameIndex,
		block:      1,
	}, nil
}

// SamplesPerFrame returns the number of samples carried by one frame.
func (s *Sender) SamplesPerFrame() int {
	return s.perBlock * (s.cfg.OriginalBlocks - 1)
}

// SetCenterFrequency changes the advertised center frequency from the next
// frame on.
func (s *Sender) SetCenterFrequency(hz uint64) {
	s.mu.Lock()
	s.cfg.CenterFrequency = hz
	s.mu.Unlock()
}

// SetSampleRate changes the advertised sample rate from the next frame on.
func (s *Sender) SetSampleRate(rate uint32) {
	s.mu.Lock()
	s.cfg.SampleRate = rate
	s.mu.Unlock()
}

// WriteSamples appends samples, sending every frame that fills up.
func (s *Sender) WriteSamples(samples []sample.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stride := 2 * s.cfg.SampleBytes
	for _, smp := range samples {
		dst := s.shards[s.block][s.offset*stride:]
		if err := sample.Encode(dst, smp, s.cfg.SampleBytes, s.cfg.InputBits); err != nil {
			return err
		}
		s.stats.Samples++

		s.offset++
		if s.offset == s.perBlock {
			s.offset = 0
			s.block++
		}
		if s.block == s.cfg.OriginalBlocks {
			if err := s.emit(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush sends the current frame padded with silence, if it holds samples.
func (s *Sender) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.block == 1 && s.offset == 0 {
		return nil
	}
	return s.emit()
}

// emit seals, encodes and sends the current frame.
func (s *Sender) emit() error {
	k := s.cfg.OriginalBlocks
	stride := 2 * s.cfg.SampleBytes

	// zero the unwritten tail of a partial frame
	if s.block < k {
		clear(s.shards[s.block][s.offset*stride:])
		for i := s.block + 1; i < k; i++ {
			clear(s.shards[i])
		}
	}

	now := s.cfg.Now()
	meta := wire.MetaData{
		CenterFrequency:  s.cfg.CenterFrequency,
		SampleRate:       s.cfg.SampleRate,
		SampleBytes:      uint8(s.cfg.SampleBytes),
		SampleBits:       uint8(sample.WireBits(s.cfg.SampleBytes)),
		NbOriginalBlocks: uint8(k),
		NbFECBlocks:      uint8(s.cfg.RecoveryBlocks),
		DeviceIndex:      s.cfg.DeviceIndex,
		ChannelIndex:     s.cfg.ChannelIndex,
		TvSec:            uint32(now.Unix()),
		TvUsec:           uint32(now.Nanosecond() / int(time.Microsecond)),
	}
	clear(s.shards[0])
	if err := meta.Seal(s.shards[0]); err != nil {
		return err
	}

	if err := s.enc.Encode(s.shards); err != nil {
		s.stats.Errors++
		return fmt.Errorf("frame %d: %w", s.frameIndex, err)
	}

	h := wire.Header{
		FrameIndex:  s.frameIndex,
		SampleBytes: uint8(s.cfg.SampleBytes),
		SampleBits:  meta.SampleBits,
	}
	for i, shard := range s.shards {
		h.BlockIndex = uint8(i)
		if err := wire.PutHeader(s.datagram, h); err != nil {
			return err
		}
		copy(s.datagram[wire.HeaderSize:], shard)
		if err := s.out.Send(s.datagram); err != nil {
			s.stats.Errors++
			logrus.WithFields(logrus.Fields{
				"function":    "Sender.emit",
				"frame_index": s.frameIndex,
				"block_index": i,
				"error":       err.Error(),
			}).Warn("Failed to send datagram")
			continue
		}
		s.stats.Datagrams++
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Sender.emit",
		"frame_index": s.frameIndex,
		"blocks":      len(s.shards),
	}).Debug("Frame sent")

	s.stats.Frames++
	s.frameIndex++
	s.block = 1
	s.offset = 0
	return nil
}

// FrameIndex returns the index of the frame being filled.
func (s *Sender) FrameIndex() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameIndex
}

// Stats returns a snapshot of the counters.
func (s *Sender) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close flushes the pending frame and closes the datagram sender.
func (s *Sender) Close() error {
	flushErr := s.Flush()
	if err := s.out.Close(); err != nil {
		return err
	}
	return flushErr
}
