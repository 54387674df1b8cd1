package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"time"
)

const (
	// MetaDataSize is the serialized size of MetaData, CRC included.
	MetaDataSize = 32

	// metaCRCOffset is where the CRC-32 field starts; it covers every byte
	// before it.
	metaCRCOffset = MetaDataSize - 4
)

// ErrMetaCRC is returned when the embedded CRC-32 does not match the payload.
var ErrMetaCRC = errors.New("meta data CRC mismatch")

// MetaData is the stream descriptor carried in block 0 of a frame.
type MetaData struct {
	CenterFrequency  uint64
	SampleRate       uint32
	SampleBytes      uint8 // only the low nibble is significant
	SampleBits       uint8
	NbOriginalBlocks uint8
	NbFECBlocks      uint8
	DeviceIndex      uint16
	ChannelIndex     uint16
	TvSec            uint32
	TvUsec           uint32
	CRC32            uint32
}

// BytesPerComponent returns the low nibble of SampleBytes.
func (m MetaData) BytesPerComponent() int {
	return int(m.SampleBytes & 0x0F)
}

// Timestamp returns the capture time carried by the descriptor.
func (m MetaData) Timestamp() time.Time {
	return time.Unix(int64(m.TvSec), int64(m.TvUsec)*int64(time.Microsecond))
}

// Equal reports whether two descriptors describe the same stream. Capture
// time and CRC are not compared.
func (m MetaData) Equal(o MetaData) bool {
	return m.CenterFrequency == o.CenterFrequency &&
		m.SampleRate == o.SampleRate &&
		m.BytesPerComponent() == o.BytesPerComponent() &&
		m.SampleBits == o.SampleBits &&
		m.NbOriginalBlocks == o.NbOriginalBlocks &&
		m.NbFECBlocks == o.NbFECBlocks &&
		m.DeviceIndex == o.DeviceIndex &&
		m.ChannelIndex == o.ChannelIndex
}

// MarshalTo writes the descriptor, including the CRC32 field as is, into b.
func (m *MetaData) MarshalTo(b []byte) error {
	if len(b) < MetaDataSize {
		return fmt.Errorf("%w: meta data needs %d bytes, have %d", ErrShortBuffer, MetaDataSize, len(b))
	}

	binary.LittleEndian.PutUint64(b[0:8], m.CenterFrequency)
	binary.LittleEndian.PutUint32(b[8:12], m.SampleRate)
	b[12] = m.SampleBytes
	b[13] = m.SampleBits
	b[14] = m.NbOriginalBlocks
	b[15] = m.NbFECBlocks
	binary.LittleEndian.PutUint16(b[16:18], m.DeviceIndex)
	binary.LittleEndian.PutUint16(b[18:20], m.ChannelIndex)
	binary.LittleEndian.PutUint32(b[20:24], m.TvSec)
	binary.LittleEndian.PutUint32(b[24:28], m.TvUsec)
	binary.LittleEndian.PutUint32(b[28:32], m.CRC32)

	return nil
}

// Seal computes the CRC over the serialized descriptor, stores it in m and
// writes the result into b.
func (m *MetaData) Seal(b []byte) error {
	if err := m.MarshalTo(b); err != nil {
		return err
	}

	m.CRC32 = crc32.ChecksumIEEE(b[:metaCRCOffset])
	binary.LittleEndian.PutUint32(b[metaCRCOffset:MetaDataSize], m.CRC32)

	return nil
}

// ParseMetaData decodes a descriptor without checking its CRC.
func ParseMetaData(b []byte) (MetaData, error) {
	if len(b) < MetaDataSize {
		return MetaData{}, fmt.Errorf("%w: meta data needs %d bytes, have %d", ErrShortBuffer, MetaDataSize, len(b))
	}

	return MetaData{
		CenterFrequency:  binary.LittleEndian.Uint64(b[0:8]),
		SampleRate:       binary.LittleEndian.Uint32(b[8:12]),
		SampleBytes:      b[12],
		SampleBits:       b[13],
		NbOriginalBlocks: b[14],
		NbFECBlocks:      b[15],
		DeviceIndex:      binary.LittleEndian.Uint16(b[16:18]),
		ChannelIndex:     binary.LittleEndian.Uint16(b[18:20]),
		TvSec:            binary.LittleEndian.Uint32(b[20:24]),
		TvUsec:           binary.LittleEndian.Uint32(b[24:28]),
		CRC32:            binary.LittleEndian.Uint32(b[28:32]),
	}, nil
}

// VerifyMetaData decodes a descriptor and checks the CRC over the raw bytes.
// On mismatch the decoded value is still returned together with ErrMetaCRC.
func VerifyMetaData(b []byte) (MetaData, error) {
	m, err := ParseMetaData(b)
	if err != nil {
		return MetaData{}, err
	}

	computed := crc32.ChecksumIEEE(b[:metaCRCOffset])
	if computed != m.CRC32 {
		return m, fmt.Errorf("%w: computed %08x, embedded %08x", ErrMetaCRC, computed, m.CRC32)
	}

	return m, nil
}

// String renders the descriptor the way sender logs print it.
func (m MetaData) String() string {
	return fmt.Sprintf("|%d:%d:%d:%d:%d:%d|%d:%d|%d:%d|",
		m.CenterFrequency, m.SampleRate, m.BytesPerComponent(), m.SampleBits,
		m.NbOriginalBlocks, m.NbFECBlocks, m.DeviceIndex, m.ChannelIndex,
		m.TvSec, m.TvUsec)
}
