package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/opd-ai/remoteiq/config"
	"github.com/opd-ai/remoteiq/interfaces"
	"github.com/opd-ai/remoteiq/sample"
)

// sampleWriter writes interleaved little-endian I/Q pairs, int16 for 16 bit
// samples and int32 for 24 bit samples.
type sampleWriter struct {
	w       io.Writer
	closers []io.Closer
	width   int
	samples []sample.Sample
	buf     []byte
}

func openOutput(cfg config.OutputConfig, rxBits int) (*sampleWriter, error) {
	sw := &sampleWriter{w: io.Discard, width: 2}
	if rxBits > 16 {
		sw.width = 4
	}

	switch cfg.Path {
	case "":
		return sw, nil
	case "-":
		sw.w = os.Stdout
	default:
		f, err := os.Create(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output: %w", err)
		}
		sw.w = f
		sw.closers = append(sw.closers, f)
	}

	if cfg.Compress {
		enc, err := zstd.NewWriter(sw.w, zstd.WithEncoderLevel(zstd.EncoderLevel(cfg.Level)))
		if err != nil {
			sw.Close()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		sw.w = enc
		// the encoder must be closed before the file
		sw.closers = append([]io.Closer{enc}, sw.closers...)
	}
	return sw, nil
}

// Pull reads n samples from src and writes them.
func (sw *sampleWriter) Pull(src interfaces.ISampleSource, n int) error {
	if cap(sw.samples) < n {
		sw.samples = make([]sample.Sample, n)
		sw.buf = make([]byte, 2*sw.width*n)
	}
	samples := sw.samples[:n]
	src.ReadSamples(samples, false)

	buf := sw.buf[:2*sw.width*n]
	for i, s := range samples {
		off := 2 * sw.width * i
		if sw.width == 2 {
			binary.LittleEndian.PutUint16(buf[off:], uint16(int16(s.Real)))
			binary.LittleEndian.PutUint16(buf[off+2:], uint16(int16(s.Imag)))
		} else {
			binary.LittleEndian.PutUint32(buf[off:], uint32(s.Real))
			binary.LittleEndian.PutUint32(buf[off+4:], uint32(s.Imag))
		}
	}

	if _, err := sw.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// Close flushes and closes the output chain.
func (sw *sampleWriter) Close() error {
	var first error
	for _, c := range sw.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	sw.closers = nil
	return first
}
