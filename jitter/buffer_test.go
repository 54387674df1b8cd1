package jitter

import (
	"encoding/binary"
	"testing"

	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/sample"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBlockBytes = 32
	testK          = 3
	perBlock       = testBlockBytes / 4 // 2 bytes per component
	perFrame       = perBlock * (testK - 1)
)

// rampFrame returns a 16 bit frame whose sample n has I = base+n, Q = -(base+n).
// Blocks listed in missing are left out.
func rampFrame(index uint32, base int16, missing ...int) *frame.Frame {
	skip := map[int]bool{}
	for _, m := range missing {
		skip[m] = true
	}

	f := frame.New(testBlockBytes, testK)
	f.Reset(index)
	h := wire.Header{FrameIndex: index, SampleBytes: 2, SampleBits: 16}
	f.Store(h, make([]byte, testBlockBytes))
	for blk := 1; blk < testK; blk++ {
		if skip[blk] {
			continue
		}
		buf := make([]byte, testBlockBytes)
		for n := 0; n < perBlock; n++ {
			v := base + int16((blk-1)*perBlock+n)
			binary.LittleEndian.PutUint16(buf[4*n:], uint16(v))
			binary.LittleEndian.PutUint16(buf[4*n+2:], uint16(-v))
		}
		h.BlockIndex = uint8(blk)
		f.Store(h, buf)
	}
	return f
}

func newBuffer(t *testing.T, depth int, rxBits int, recycled *[]*frame.Frame) *ReadBuffer {
	t.Helper()
	conv, err := sample.NewConverter(rxBits)
	require.NoError(t, err)
	var recycle func(*frame.Frame)
	if recycled != nil {
		recycle = func(f *frame.Frame) { *recycled = append(*recycled, f) }
	}
	b, err := NewReadBuffer(depth, conv, recycle)
	require.NoError(t, err)
	return b
}

func TestNewReadBufferValidation(t *testing.T) {
	conv, _ := sample.NewConverter(16)
	_, err := NewReadBuffer(0, conv, nil)
	assert.Error(t, err)
	_, err = NewReadBuffer(4, nil, nil)
	assert.Error(t, err)
}

func TestEmptyBufferReturnsZero(t *testing.T) {
	b := newBuffer(t, 4, 16, nil)
	assert.Equal(t, sample.Sample{}, b.ReadSample(false))
	assert.Equal(t, uint64(1), b.Underruns())
	assert.Zero(t, b.ReadSampleCount())
}

func TestReadsSkipMetaBlock(t *testing.T) {
	var recycled []*frame.Frame
	b := newBuffer(t, 4, 16, &recycled)
	f := rampFrame(1, 100)
	b.Push(f)
	assert.Equal(t, perFrame, b.BufferedSamples())

	for n := 0; n < perFrame; n++ {
		s := b.ReadSample(false)
		require.Equal(t, int32(100+n), s.Real, "sample %d", n)
		require.Equal(t, int32(-(100 + n)), s.Imag, "sample %d", n)
	}
	assert.Equal(t, 0, b.Length())
	assert.Equal(t, []*frame.Frame{f}, recycled)
	assert.Equal(t, uint64(perFrame), b.ReadSampleCount())
	assert.Zero(t, b.Underruns())
}

func TestRxWidthShift(t *testing.T) {
	b := newBuffer(t, 4, 24, nil)
	b.Push(rampFrame(1, 3))

	s := b.ReadSample(false)
	assert.Equal(t, int32(3<<8), s.Real)

	s = b.ReadSample(true)
	assert.Equal(t, int32(4), s.Real, "tx path stays at 16 bits")
}

func TestMissingBlockReadsZero(t *testing.T) {
	b := newBuffer(t, 4, 16, nil)
	b.Push(rampFrame(1, 1, 1))

	dst := make([]sample.Sample, perFrame)
	require.Equal(t, perFrame, b.ReadSamples(dst, false))
	for n := 0; n < perBlock; n++ {
		assert.Equal(t, sample.Sample{}, dst[n])
	}
	assert.Equal(t, int32(1+perBlock), dst[perBlock].Real)
}

func TestReadSamplesAcrossFramesAndUnderrun(t *testing.T) {
	b := newBuffer(t, 4, 16, nil)
	b.Push(rampFrame(1, 0))
	b.Push(rampFrame(2, 1000))

	dst := make([]sample.Sample, 2*perFrame+5)
	for i := range dst {
		dst[i] = sample.Sample{Real: 99, Imag: 99}
	}
	n := b.ReadSamples(dst, false)

	assert.Equal(t, 2*perFrame, n)
	assert.Equal(t, int32(perFrame-1), dst[perFrame-1].Real)
	assert.Equal(t, int32(1000), dst[perFrame].Real)
	assert.Equal(t, sample.Sample{}, dst[len(dst)-1])
	assert.Equal(t, uint64(5), b.Underruns())
}

func TestPushDropsOldest(t *testing.T) {
	var recycled []*frame.Frame
	b := newBuffer(t, 2, 16, &recycled)
	first := rampFrame(1, 0)
	b.Push(first)
	b.ReadSample(false)
	b.Push(rampFrame(2, 100))
	b.Push(rampFrame(3, 200))

	assert.Equal(t, 2, b.Length())
	assert.Equal(t, uint64(1), b.Dropped())
	assert.Equal(t, []*frame.Frame{first}, recycled)

	// the cursor restarts on the new head
	assert.Equal(t, int32(100), b.ReadSample(false).Real)
	assert.Equal(t, 2*perFrame-1, b.BufferedSamples())
}

func TestUnsupportedSampleSizeSkipped(t *testing.T) {
	b := newBuffer(t, 4, 16, nil)
	bad := frame.New(testBlockBytes, testK)
	bad.Reset(1)
	bad.Store(wire.Header{FrameIndex: 1, BlockIndex: 1, SampleBytes: 3}, make([]byte, testBlockBytes))
	b.Push(bad)
	b.Push(rampFrame(2, 7))

	assert.Equal(t, int32(7), b.ReadSample(false).Real)
	assert.Equal(t, uint64(1), b.Unreadable())
}

func TestClear(t *testing.T) {
	var recycled []*frame.Frame
	b := newBuffer(t, 4, 16, &recycled)
	b.Push(rampFrame(1, 0))
	b.Push(rampFrame(2, 0))
	b.ReadSample(false)

	assert.Equal(t, 2, b.Clear())
	assert.Len(t, recycled, 2)
	assert.Equal(t, 0, b.BufferedSamples())
	assert.Equal(t, 4, b.Size())
}
