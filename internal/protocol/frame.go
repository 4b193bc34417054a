package protocol

import (
	"encoding/binary"
	"fmt"
)

// AudioFrame is one 12-byte-header-plus-payload audio message. It is
// short-lived: allocated per inbound binary message, not retained.
type AudioFrame struct {
	Magic   uint32
	Length  uint32
	Seq     uint32
	Payload []byte
}

// ParseFrame validates and decodes a complete frame message (header plus
// payload). The returned Payload aliases the tail of data.
func ParseFrame(data []byte) (AudioFrame, error) {
	if len(data) < frameHeaderSize {
		return AudioFrame{}, fmt.Errorf("%w: message too short (%d bytes)", ErrInvalidFrame, len(data))
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != magicPCMFrame && magic != magicADPCMFrame {
		return AudioFrame{}, fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidFrame, magic)
	}

	length := binary.LittleEndian.Uint32(data[4:8])
	payload := data[frameHeaderSize:]
	if int(length) != len(payload) {
		return AudioFrame{}, fmt.Errorf("%w: declared length %d does not match payload %d", ErrInvalidFrame, length, len(payload))
	}

	return AudioFrame{
		Magic:   magic,
		Length:  length,
		Seq:     binary.LittleEndian.Uint32(data[8:12]),
		Payload: payload,
	}, nil
}

// WireLength returns the total on-wire size of the frame (header + payload).
func (f AudioFrame) WireLength() int {
	return frameHeaderSize + len(f.Payload)
}

// Validate cross-checks a parsed frame against the session's handshake:
// codec/magic pairing and payload-size bounds.
func (f AudioFrame) Validate(h Handshake) error {
	switch h.Codec {
	case CodecPCMS16LE:
		if f.Magic != magicPCMFrame {
			return fmt.Errorf("%w: handshake codec PCM but frame magic 0x%08x", ErrFrameCodecMismatch, f.Magic)
		}
		want := int(h.FrameSamples) * int(h.Channels) * 2
		if len(f.Payload) != want {
			return fmt.Errorf("%w: PCM payload %d bytes, want exactly %d", ErrInvalidPayloadSize, len(f.Payload), want)
		}

	case CodecADPCM:
		if f.Magic != magicADPCMFrame {
			return fmt.Errorf("%w: handshake codec ADPCM but frame magic 0x%08x", ErrFrameCodecMismatch, f.Magic)
		}
		maxLen := 4 + int(h.FrameSamples)*int(h.Channels)/2 + adpcmPaddingSlack
		if len(f.Payload) < 4 || len(f.Payload) > maxLen {
			return fmt.Errorf("%w: ADPCM payload %d bytes, want 4..%d", ErrInvalidPayloadSize, len(f.Payload), maxLen)
		}

	default:
		// Unsupported codec values are accepted by the handshake parser but
		// have no frame-magic pairing to enforce; WavEnabled already
		// disables WAV output for them. No frame of any magic is valid to
		// cross-validate, so treat any arriving frame as a mismatch.
		return fmt.Errorf("%w: handshake codec %d has no valid frame magic", ErrFrameCodecMismatch, h.Codec)
	}
	return nil
}
