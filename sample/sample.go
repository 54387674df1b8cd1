// Package sample converts I/Q components between their wire width and the
// fixed widths of the processing engine.
//
// Wire components are 1, 2 or 4 bytes wide and carry 8, 16 or 24 significant
// bits (a 4 byte component is a 24 bit value in a 32 bit container). The
// receive path works at a configurable width of 16 or 24 bits; the transmit
// path always works at 16 bits and so never applies the 24 bit headroom shift.
package sample

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/remoteiq/limits"
)

const (
	// TxBits is the transmit path sample width.
	TxBits = 16

	// DefaultRxBits is the receive path sample width.
	DefaultRxBits = 24
)

// Sample is one complex sample at engine width.
type Sample struct {
	Real int32
	Imag int32
}

// WireBits returns the significant bits of a wire component of sampleBytes
// bytes, or 0 if the size is not supported.
func WireBits(sampleBytes int) int {
	switch sampleBytes {
	case 1:
		return 8
	case 2:
		return 16
	case 4:
		return 24
	default:
		return 0
	}
}

// Converter decodes wire samples to engine width.
type Converter struct {
	rxBits int
}

// NewConverter creates a converter for a receive width of 16 or 24 bits.
func NewConverter(rxBits int) (*Converter, error) {
	if rxBits != 16 && rxBits != 24 {
		return nil, fmt.Errorf("%w: rx sample width %d, want 16 or 24", limits.ErrSampleSize, rxBits)
	}
	return &Converter{rxBits: rxBits}, nil
}

// RxBits returns the receive path width.
func (c *Converter) RxBits() int {
	return c.rxBits
}

// Decode converts the I/Q pair at the start of buf. Unsupported sizes and
// short buffers yield a zero sample.
func (c *Converter) Decode(buf []byte, sampleBytes int, isTx bool) Sample {
	wireBits := WireBits(sampleBytes)
	if wireBits == 0 || len(buf) < 2*sampleBytes {
		return Sample{}
	}

	target := c.rxBits
	if isTx {
		target = TxBits
	}

	return Sample{
		Real: shift(component(buf, sampleBytes), target-wireBits),
		Imag: shift(component(buf[sampleBytes:], sampleBytes), target-wireBits),
	}
}

// Encode writes s, whose components are sampleBits wide, as a wire I/Q pair
// of sampleBytes per component into dst.
func Encode(dst []byte, s Sample, sampleBytes, sampleBits int) error {
	wireBits := WireBits(sampleBytes)
	if wireBits == 0 {
		return fmt.Errorf("%w: %d bytes per component", limits.ErrSampleSize, sampleBytes)
	}
	if len(dst) < 2*sampleBytes {
		return fmt.Errorf("%w: need %d bytes, have %d", limits.ErrOutOfRange, 2*sampleBytes, len(dst))
	}

	putComponent(dst, sampleBytes, shift(s.Real, wireBits-sampleBits))
	putComponent(dst[sampleBytes:], sampleBytes, shift(s.Imag, wireBits-sampleBits))

	return nil
}

func component(b []byte, sampleBytes int) int32 {
	switch sampleBytes {
	case 1:
		return int32(int8(b[0]))
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	default:
		return int32(binary.LittleEndian.Uint32(b))
	}
}

func putComponent(b []byte, sampleBytes int, v int32) {
	switch sampleBytes {
	case 1:
		b[0] = byte(int8(v))
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	default:
		binary.LittleEndian.PutUint32(b, uint32(v))
	}
}

// shift moves v left for positive n and arithmetically right for negative n.
func shift(v int32, n int) int32 {
	if n >= 0 {
		return v << uint(n)
	}
	return v >> uint(-n)
}
