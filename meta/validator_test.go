package meta

import (
	"testing"

	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBlockBytes = 64
	testK          = 8
)

func streamMeta(rate uint32) wire.MetaData {
	return wire.MetaData{
		CenterFrequency:  145_800_000,
		SampleRate:       rate,
		SampleBytes:      2,
		SampleBits:       16,
		NbOriginalBlocks: testK,
		NbFECBlocks:      2,
		TvSec:            1_700_000_000,
	}
}

// metaFrame returns a frame whose block 0 carries m, optionally corrupted.
func metaFrame(t *testing.T, m wire.MetaData, corrupt bool) *frame.Frame {
	t.Helper()
	block := make([]byte, testBlockBytes)
	require.NoError(t, m.Seal(block))
	if corrupt {
		block[9] ^= 0x10
	}

	f := frame.New(testBlockBytes, testK)
	f.Reset(7)
	f.Store(wire.Header{FrameIndex: 7, BlockIndex: 0, SampleBytes: 4, SampleBits: 24}, block)
	return f
}

func TestValidateWithoutMeta(t *testing.T) {
	v := NewValidator()
	f := frame.New(testBlockBytes, testK)
	f.Reset(1)

	_, ok := v.Validate(f)
	assert.False(t, ok)
	assert.False(t, v.HasMeta())
	assert.Zero(t, v.CRCErrors())
}

func TestValidateAdoptsMeta(t *testing.T) {
	v := NewValidator()
	f := metaFrame(t, streamMeta(48_000), false)

	m, ok := v.Validate(f)
	require.True(t, ok)
	assert.Equal(t, uint32(48_000), m.SampleRate)
	assert.True(t, v.HasMeta())
	assert.Equal(t, uint8(2), f.SampleBytes, "sample format taken from meta")
	assert.Equal(t, uint8(16), f.SampleBits)
	assert.Equal(t, uint64(1), v.Changes())
}

func TestValidateCRCMismatchKeepsState(t *testing.T) {
	v := NewValidator()
	_, ok := v.Validate(metaFrame(t, streamMeta(48_000), false))
	require.True(t, ok)

	f := metaFrame(t, streamMeta(96_000), true)
	_, ok = v.Validate(f)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), v.CRCErrors())
	assert.Equal(t, uint8(4), f.SampleBytes, "header format kept")

	cur, ok := v.Current()
	require.True(t, ok)
	assert.Equal(t, uint32(48_000), cur.SampleRate)
}

func TestSampleRateChangeSignal(t *testing.T) {
	v := NewValidator()
	type change struct{ from, to uint32 }
	var changes []change
	v.OnSampleRateChange(func(from, to uint32) {
		// the previous descriptor is still current while listeners run
		cur, _ := v.Current()
		assert.Equal(t, from, cur.SampleRate)
		changes = append(changes, change{from, to})
	})
	v.OnSampleRateChange(nil)

	v.Validate(metaFrame(t, streamMeta(48_000), false))
	v.Validate(metaFrame(t, streamMeta(48_000), false))
	v.Validate(metaFrame(t, streamMeta(96_000), false))
	v.Validate(metaFrame(t, streamMeta(0), false))

	assert.Equal(t, []change{{48_000, 96_000}}, changes)
	assert.Equal(t, uint64(3), v.Changes())
}

func TestTimestampRenewedWithoutChange(t *testing.T) {
	v := NewValidator()
	m := streamMeta(48_000)
	v.Validate(metaFrame(t, m, false))
	m.TvSec += 5
	v.Validate(metaFrame(t, m, false))

	cur, _ := v.Current()
	assert.Equal(t, m.TvSec, cur.TvSec)
	assert.Equal(t, uint64(1), v.Changes())
}

func TestRecoveryCount(t *testing.T) {
	v := NewValidator()
	f := frame.New(testBlockBytes, testK)
	f.Reset(1)
	f.Store(wire.Header{FrameIndex: 1, BlockIndex: 3}, make([]byte, testBlockBytes))

	assert.Equal(t, 0, v.RecoveryCount(f, wire.MetaData{}, false), "nothing known")

	f.Store(wire.Header{FrameIndex: 1, BlockIndex: testK + 2}, make([]byte, testBlockBytes))
	assert.Equal(t, 3, v.RecoveryCount(f, wire.MetaData{}, false), "inferred from index")

	v.Validate(metaFrame(t, streamMeta(48_000), false))
	g := frame.New(testBlockBytes, testK)
	g.Reset(2)
	assert.Equal(t, 2, v.RecoveryCount(g, wire.MetaData{}, false), "last valid meta")

	own := streamMeta(48_000)
	own.NbFECBlocks = 5
	assert.Equal(t, 5, v.RecoveryCount(g, own, true), "frame meta wins")

	own.NbOriginalBlocks = testK + 1
	assert.Equal(t, 2, v.RecoveryCount(g, own, true), "geometry mismatch ignored")
}

func TestReset(t *testing.T) {
	v := NewValidator()
	v.Validate(metaFrame(t, streamMeta(48_000), false))
	v.Reset()
	assert.False(t, v.HasMeta())
}
