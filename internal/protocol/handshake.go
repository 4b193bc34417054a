package protocol

import (
	"encoding/binary"
	"fmt"
)

// Handshake is the fixed 32-byte preamble every ingest session opens with.
// It is parsed once and never mutated for the lifetime of a session.
type Handshake struct {
	StreamID     uint32
	SampleRate   uint32
	Channels     uint16
	Codec        Codec
	FrameSamples uint16
	TimestampMs  uint64
}

// ParseHandshake validates and decodes the complete payload of the first
// binary message on a connection. The handshake byte range [22:24) is
// reserved/padding and is intentionally ignored.
func ParseHandshake(data []byte) (Handshake, error) {
	if len(data) < handshakeSize {
		return Handshake{}, fmt.Errorf("%w: payload too short (%d bytes)", ErrInvalidHandshake, len(data))
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != magicHandshake {
		return Handshake{}, fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidHandshake, magic)
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	if version != handshakeVersion {
		return Handshake{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidHandshake, version)
	}

	headerLen := binary.LittleEndian.Uint16(data[6:8])
	if headerLen != handshakeHeaderLen {
		return Handshake{}, fmt.Errorf("%w: unexpected header length %d", ErrInvalidHandshake, headerLen)
	}

	return Handshake{
		StreamID:     binary.LittleEndian.Uint32(data[8:12]),
		SampleRate:   binary.LittleEndian.Uint32(data[12:16]),
		Channels:     binary.LittleEndian.Uint16(data[16:18]),
		Codec:        Codec(binary.LittleEndian.Uint16(data[18:20])),
		FrameSamples: binary.LittleEndian.Uint16(data[20:22]),
		TimestampMs:  binary.LittleEndian.Uint64(data[24:32]),
	}, nil
}

// WavEnabled reports whether this handshake's codec/channel combination
// permits simultaneous linear-PCM WAV output.
func (h Handshake) WavEnabled() bool {
	switch h.Codec {
	case CodecPCMS16LE:
		return true
	case CodecADPCM:
		return h.Channels == 1
	default:
		return false
	}
}
