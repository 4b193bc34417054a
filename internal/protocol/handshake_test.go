package protocol

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHandshakeBytes() []byte {
	buf := make([]byte, handshakeSize)
	binary.LittleEndian.PutUint32(buf[0:4], magicHandshake)
	binary.LittleEndian.PutUint16(buf[4:6], handshakeVersion)
	binary.LittleEndian.PutUint16(buf[6:8], handshakeHeaderLen)
	binary.LittleEndian.PutUint32(buf[8:12], 0x2A)
	binary.LittleEndian.PutUint32(buf[12:16], 16000)
	binary.LittleEndian.PutUint16(buf[16:18], 1)
	binary.LittleEndian.PutUint16(buf[18:20], uint16(CodecPCMS16LE))
	binary.LittleEndian.PutUint16(buf[20:22], 160)
	binary.LittleEndian.PutUint64(buf[24:32], 1000)
	return buf
}

func TestParseHandshake_Valid(t *testing.T) {
	h, err := ParseHandshake(validHandshakeBytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2A), h.StreamID)
	assert.Equal(t, uint32(16000), h.SampleRate)
	assert.Equal(t, uint16(1), h.Channels)
	assert.Equal(t, CodecPCMS16LE, h.Codec)
	assert.Equal(t, uint16(160), h.FrameSamples)
	assert.Equal(t, uint64(1000), h.TimestampMs)
}

func TestParseHandshake_TooShort(t *testing.T) {
	_, err := ParseHandshake(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidHandshake)
}

func TestParseHandshake_BadMagic(t *testing.T) {
	buf := validHandshakeBytes()
	binary.LittleEndian.PutUint32(buf[0:4], 0)
	_, err := ParseHandshake(buf)
	assert.ErrorIs(t, err, ErrInvalidHandshake)
}

func TestParseHandshake_BadVersion(t *testing.T) {
	buf := validHandshakeBytes()
	binary.LittleEndian.PutUint16(buf[4:6], 2)
	_, err := ParseHandshake(buf)
	assert.ErrorIs(t, err, ErrInvalidHandshake)
}

func TestWavEnabled(t *testing.T) {
	cases := []struct {
		codec    Codec
		channels uint16
		want     bool
	}{
		{CodecPCMS16LE, 1, true},
		{CodecPCMS16LE, 2, true},
		{CodecADPCM, 1, true},
		{CodecADPCM, 2, false},
		{Codec(99), 1, false},
	}
	for _, c := range cases {
		h := Handshake{Codec: c.codec, Channels: c.channels}
		assert.Equal(t, c.want, h.WavEnabled())
	}
}
