package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConverter(t *testing.T) {
	for _, bits := range []int{16, 24} {
		c, err := NewConverter(bits)
		require.NoError(t, err)
		assert.Equal(t, bits, c.RxBits())
	}

	_, err := NewConverter(32)
	assert.Error(t, err)
}

func TestDecodePaths(t *testing.T) {
	rx24, _ := NewConverter(24)
	rx16, _ := NewConverter(16)

	tests := []struct {
		name        string
		conv        *Converter
		sampleBytes int
		in          Sample // value at wire width
		isTx        bool
		want        Sample
	}{
		{name: "8 bit to rx24", conv: rx24, sampleBytes: 1, in: Sample{-3, 5}, want: Sample{-3 << 16, 5 << 16}},
		{name: "8 bit to rx16", conv: rx16, sampleBytes: 1, in: Sample{-3, 5}, want: Sample{-3 << 8, 5 << 8}},
		{name: "8 bit to tx", conv: rx24, sampleBytes: 1, in: Sample{-3, 5}, isTx: true, want: Sample{-3 << 8, 5 << 8}},
		{name: "16 bit to rx24", conv: rx24, sampleBytes: 2, in: Sample{-1234, 4321}, want: Sample{-1234 << 8, 4321 << 8}},
		{name: "16 bit to rx16", conv: rx16, sampleBytes: 2, in: Sample{-1234, 4321}, want: Sample{-1234, 4321}},
		{name: "16 bit to tx", conv: rx24, sampleBytes: 2, in: Sample{-1234, 4321}, isTx: true, want: Sample{-1234, 4321}},
		{name: "24 bit to rx24", conv: rx24, sampleBytes: 4, in: Sample{-800000, 700000}, want: Sample{-800000, 700000}},
		{name: "24 bit to rx16", conv: rx16, sampleBytes: 4, in: Sample{-800000, 700000}, want: Sample{-800000 >> 8, 700000 >> 8}},
		{name: "24 bit to tx", conv: rx24, sampleBytes: 4, in: Sample{-800000, 700000}, isTx: true, want: Sample{-800000 >> 8, 700000 >> 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 2*tt.sampleBytes)
			require.NoError(t, Encode(buf, tt.in, tt.sampleBytes, WireBits(tt.sampleBytes)))
			assert.Equal(t, tt.want, tt.conv.Decode(buf, tt.sampleBytes, tt.isTx))
		})
	}
}

func TestDecodeUnsupportedIsZero(t *testing.T) {
	c, _ := NewConverter(24)
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	assert.Equal(t, Sample{}, c.Decode(buf, 3, false))
	assert.Equal(t, Sample{}, c.Decode(buf, 0, false))
	assert.Equal(t, Sample{}, c.Decode(buf[:3], 2, false))
}

func TestRoundTrip16To24To16(t *testing.T) {
	rx24, _ := NewConverter(24)
	wide := make([]byte, 8)
	narrow := make([]byte, 4)

	for _, v := range []int32{-32768, -12345, -1, 0, 1, 255, 256, 32767} {
		in := Sample{Real: v, Imag: -v - 1}
		require.NoError(t, Encode(narrow, in, 2, 16))

		// 16 bit wire to 24 bit engine width
		s24 := rx24.Decode(narrow, 2, false)

		// 24 bit engine value to 24 bit wire and back to 16 bit wire
		require.NoError(t, Encode(wide, s24, 4, 24))
		mid := rx24.Decode(wide, 4, false)
		require.NoError(t, Encode(narrow, mid, 2, 24))

		assert.Equal(t, in, rx24.Decode(narrow, 2, true), "value %d", v)
	}
}

func TestEncodeErrors(t *testing.T) {
	assert.Error(t, Encode(make([]byte, 8), Sample{}, 3, 24))
	assert.Error(t, Encode(make([]byte, 3), Sample{}, 2, 16))
}
