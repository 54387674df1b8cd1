package main

import (
	"math"
	"testing"

	"github.com/opd-ai/remoteiq/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneAmplitude(t *testing.T) {
	gen := newTone(1000, 48000, 0.5)
	samples := gen.fill(make([]sample.Sample, 480))

	assert.Equal(t, int32(math.Round(0.5*math.MaxInt16)), samples[0].Real)
	assert.Zero(t, samples[0].Imag)
	for _, s := range samples {
		mag := math.Hypot(float64(s.Real), float64(s.Imag))
		assert.InDelta(t, 0.5*math.MaxInt16, mag, 1.5)
	}
	// 10 periods in 480 samples brings the phase back to the start
	next := gen.fill(make([]sample.Sample, 1))[0]
	assert.InDelta(t, float64(samples[0].Real), float64(next.Real), 1)
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, d, err := loadConfig([]string{"-k", "16", "-m", "4", "--block-bytes", "512", "--drop", "0.1", "--duration", "2s"})
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Sender.OriginalBlocks)
	assert.Equal(t, 4, cfg.Sender.RecoveryBlocks)
	assert.Equal(t, 512, cfg.Sender.BlockBytes)
	assert.True(t, cfg.LinkSettings().UseSimulation)
	assert.Equal(t, "2s", d.String())

	_, _, err = loadConfig([]string{"--sample-bytes", "3"})
	assert.Error(t, err)
	_, _, err = loadConfig([]string{"--rate", "0"})
	assert.Error(t, err)
}
