package sender

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/opd-ai/remoteiq/sample"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	datagrams [][]byte
	failAt    int
	closed    bool
}

func (c *captureSender) Send(d []byte) error {
	if c.failAt > 0 && len(c.datagrams)+1 == c.failAt {
		c.failAt = 0
		return errors.New("link down")
	}
	c.datagrams = append(c.datagrams, append([]byte(nil), d...))
	return nil
}

func (c *captureSender) Close() error {
	c.closed = true
	return nil
}

func testConfig() Config {
	return Config{
		BlockBytes:      64,
		OriginalBlocks:  4,
		RecoveryBlocks:  2,
		SampleBytes:     2,
		InputBits:       16,
		CenterFrequency: 7_100_000,
		SampleRate:      48_000,
		FirstFrameIndex: 10,
		Now:             func() time.Time { return time.Unix(1_700_000_000, 500_000_000) },
	}
}

func ramp(n int) []sample.Sample {
	out := make([]sample.Sample, n)
	for i := range out {
		out[i] = sample.Sample{Real: int32(i), Imag: -int32(i)}
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "block too small", modify: func(c *Config) { c.BlockBytes = 8 }},
		{name: "one original block", modify: func(c *Config) { c.OriginalBlocks = 1 }},
		{name: "too many blocks", modify: func(c *Config) { c.OriginalBlocks = 200; c.RecoveryBlocks = 100 }},
		{name: "three byte samples", modify: func(c *Config) { c.SampleBytes = 3 }},
		{name: "no input bits", modify: func(c *Config) { c.InputBits = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			_, err := New(cfg, &captureSender{})
			assert.Error(t, err)
		})
	}

	_, err := New(testConfig(), nil)
	assert.Error(t, err)
}

func TestFrameLayout(t *testing.T) {
	out := &captureSender{}
	s, err := New(testConfig(), out)
	require.NoError(t, err)
	assert.Equal(t, 16*3, s.SamplesPerFrame())

	require.NoError(t, s.WriteSamples(ramp(s.SamplesPerFrame())))
	require.Len(t, out.datagrams, 6)

	for i, d := range out.datagrams {
		sb, err := wire.ParseSuperBlock(d, 64)
		require.NoError(t, err)
		assert.Equal(t, uint32(10), sb.Header.FrameIndex)
		assert.Equal(t, uint8(i), sb.Header.BlockIndex)
		assert.Equal(t, uint8(2), sb.Header.SampleBytes)
		assert.Equal(t, uint8(16), sb.Header.SampleBits)
	}

	m, err := wire.VerifyMetaData(out.datagrams[0][wire.HeaderSize:])
	require.NoError(t, err)
	assert.Equal(t, uint64(7_100_000), m.CenterFrequency)
	assert.Equal(t, uint32(48_000), m.SampleRate)
	assert.Equal(t, uint8(4), m.NbOriginalBlocks)
	assert.Equal(t, uint8(2), m.NbFECBlocks)
	assert.Equal(t, uint32(1_700_000_000), m.TvSec)
	assert.Equal(t, uint32(500_000), m.TvUsec)

	// sample 17 is the second sample of block 2
	block2 := out.datagrams[2][wire.HeaderSize:]
	assert.Equal(t, int16(17), int16(binary.LittleEndian.Uint16(block2[4:])))
	assert.Equal(t, int16(-17), int16(binary.LittleEndian.Uint16(block2[6:])))

	assert.Equal(t, uint32(11), s.FrameIndex())
	st := s.Stats()
	assert.Equal(t, uint64(1), st.Frames)
	assert.Equal(t, uint64(6), st.Datagrams)
	assert.Equal(t, uint64(48), st.Samples)
}

func TestFlushPadsPartialFrame(t *testing.T) {
	out := &captureSender{}
	s, err := New(testConfig(), out)
	require.NoError(t, err)

	require.NoError(t, s.Flush())
	assert.Empty(t, out.datagrams, "nothing to flush")

	require.NoError(t, s.WriteSamples(ramp(s.SamplesPerFrame())))
	require.NoError(t, s.WriteSamples(ramp(3)))
	require.NoError(t, s.Close())
	require.Len(t, out.datagrams, 12)
	assert.True(t, out.closed)

	// the second frame reuses buffers; everything past sample 3 is silence
	block1 := out.datagrams[7][wire.HeaderSize:]
	assert.Equal(t, int16(2), int16(binary.LittleEndian.Uint16(block1[8:])))
	assert.Equal(t, make([]byte, 64-12), block1[12:])
	assert.Equal(t, make([]byte, 64), out.datagrams[8][wire.HeaderSize:])
}

func TestSampleRateChangeAdvertised(t *testing.T) {
	out := &captureSender{}
	s, err := New(testConfig(), out)
	require.NoError(t, err)

	require.NoError(t, s.WriteSamples(ramp(s.SamplesPerFrame())))
	s.SetSampleRate(96_000)
	s.SetCenterFrequency(14_074_000)
	require.NoError(t, s.WriteSamples(ramp(s.SamplesPerFrame())))

	m, err := wire.VerifyMetaData(out.datagrams[6][wire.HeaderSize:])
	require.NoError(t, err)
	assert.Equal(t, uint32(96_000), m.SampleRate)
	assert.Equal(t, uint64(14_074_000), m.CenterFrequency)
}

func TestSendErrorCounted(t *testing.T) {
	out := &captureSender{failAt: 2}
	s, err := New(testConfig(), out)
	require.NoError(t, err)

	require.NoError(t, s.WriteSamples(ramp(s.SamplesPerFrame())))
	assert.Len(t, out.datagrams, 5)
	assert.Equal(t, uint64(1), s.Stats().Errors)
}
