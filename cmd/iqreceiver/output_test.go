package main

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/opd-ai/remoteiq/config"
	"github.com/opd-ai/remoteiq/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rampSource struct{ next int32 }

func (r *rampSource) ReadSample(bool) sample.Sample {
	r.next++
	return sample.Sample{Real: r.next, Imag: -r.next}
}

func (r *rampSource) ReadSamples(dst []sample.Sample, isTx bool) int {
	for i := range dst {
		dst[i] = r.ReadSample(isTx)
	}
	return len(dst)
}

func TestSampleWriterInt16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iq.raw")
	w, err := openOutput(config.OutputConfig{Path: path}, 16)
	require.NoError(t, err)
	require.NoError(t, w.Pull(&rampSource{}, 3))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 12)
	assert.Equal(t, int16(3), int16(binary.LittleEndian.Uint16(data[8:])))
	assert.Equal(t, int16(-3), int16(binary.LittleEndian.Uint16(data[10:])))
}

func TestSampleWriterZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iq.raw.zst")
	w, err := openOutput(config.OutputConfig{Path: path, Compress: true, Level: 1}, 24)
	require.NoError(t, err)
	src := &rampSource{}
	require.NoError(t, w.Pull(src, 1000))
	require.NoError(t, w.Pull(src, 24))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	data, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Len(t, data, 1024*8)
	assert.Equal(t, int32(1024), int32(binary.LittleEndian.Uint32(data[len(data)-8:])))
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, err := loadConfig([]string{"--address", "127.0.0.1:7000", "--ring", "8", "--rx-bits", "16", "--metrics-listen", "127.0.0.1:0"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Receiver.Address)
	assert.Equal(t, 8, cfg.Receiver.RingSize)
	assert.Equal(t, 16, cfg.Receiver.RxBits)
	assert.True(t, cfg.Metrics.Enabled)

	_, err = loadConfig([]string{"--ring", "6"})
	assert.Error(t, err)
}
