package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the size of the SuperBlock header in bytes.
	HeaderSize = 8

	// MaxBlocks is the largest number of blocks (original + recovery) in one
	// frame. The block index is a single byte.
	MaxBlocks = 256

	// DefaultOriginalBlocks is the number of original blocks per frame used by
	// existing senders.
	DefaultOriginalBlocks = 128

	// DefaultDatagramSize is the default UDP payload size.
	DefaultDatagramSize = 1024

	// DefaultBlockBytes is the protected block size for DefaultDatagramSize.
	DefaultBlockBytes = DefaultDatagramSize - HeaderSize
)

var (
	// ErrDatagramSize is returned when a datagram length does not match
	// HeaderSize + BlockBytes.
	ErrDatagramSize = errors.New("datagram size mismatch")

	// ErrShortBuffer is returned when a destination buffer is too small.
	ErrShortBuffer = errors.New("buffer too short")
)

// Header is the per-datagram header.
type Header struct {
	FrameIndex  uint32
	BlockIndex  uint8
	SampleBytes uint8
	SampleBits  uint8
}

// PutHeader writes h into the first HeaderSize bytes of b.
func PutHeader(b []byte, h Header) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, have %d", ErrShortBuffer, HeaderSize, len(b))
	}

	binary.LittleEndian.PutUint32(b[0:4], h.FrameIndex)
	b[4] = h.BlockIndex
	b[5] = h.SampleBytes
	b[6] = h.SampleBits
	b[7] = 0

	return nil
}

// ParseHeader reads a Header from the first HeaderSize bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrShortBuffer, HeaderSize, len(b))
	}

	return Header{
		FrameIndex:  binary.LittleEndian.Uint32(b[0:4]),
		BlockIndex:  b[4],
		SampleBytes: b[5],
		SampleBits:  b[6],
	}, nil
}

// SuperBlock is one datagram of the link.
type SuperBlock struct {
	Header    Header
	Protected []byte
}

// DatagramSize returns the exact datagram length for a given block size.
func DatagramSize(blockBytes int) int {
	return HeaderSize + blockBytes
}

// Serialize converts the SuperBlock to a datagram.
func (sb *SuperBlock) Serialize() ([]byte, error) {
	if sb.Protected == nil {
		return nil, errors.New("protected block is nil")
	}

	data := make([]byte, HeaderSize+len(sb.Protected))
	if err := PutHeader(data, sb.Header); err != nil {
		return nil, err
	}
	copy(data[HeaderSize:], sb.Protected)

	return data, nil
}

// ParseSuperBlock parses a datagram whose length must be exactly
// HeaderSize + blockBytes. The returned Protected slice aliases data.
func ParseSuperBlock(data []byte, blockBytes int) (SuperBlock, error) {
	if len(data) != DatagramSize(blockBytes) {
		return SuperBlock{}, fmt.Errorf("%w: got %d, want %d", ErrDatagramSize, len(data), DatagramSize(blockBytes))
	}

	h, err := ParseHeader(data)
	if err != nil {
		return SuperBlock{}, err
	}

	return SuperBlock{
		Header:    h,
		Protected: data[HeaderSize:],
	}, nil
}
