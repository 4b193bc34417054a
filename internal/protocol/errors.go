package protocol

import "errors"

var (
	// ErrInvalidHandshake is returned when the handshake payload fails magic,
	// version, header-length, or length validation.
	ErrInvalidHandshake = errors.New("invalid handshake")

	// ErrInvalidFrame is returned when a frame header fails magic, length, or
	// minimum-size validation.
	ErrInvalidFrame = errors.New("invalid audio frame")

	// ErrFrameCodecMismatch is returned when a frame's magic does not match
	// the codec negotiated in the handshake.
	ErrFrameCodecMismatch = errors.New("frame codec mismatch")

	// ErrInvalidPayloadSize is returned when a frame's payload length falls
	// outside the bounds implied by the handshake and codec.
	ErrInvalidPayloadSize = errors.New("frame payload size invalid")
)
