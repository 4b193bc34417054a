// Package protocol implements the wire-level parsing and validation for the
// audio ingest handshake and frame formats.
package protocol

// Codec identifies the sample encoding carried by a frame.
type Codec uint16

const (
	CodecPCMS16LE Codec = 0
	CodecADPCM    Codec = 1
)

const (
	// magicHandshake is "ADPC" little-endian on the wire.
	magicHandshake uint32 = 0x41445043
	// magicADPCMFrame is "ADPF" little-endian on the wire.
	magicADPCMFrame uint32 = 0x41445046
	// magicPCMFrame is "PCMF" little-endian on the wire.
	magicPCMFrame uint32 = 0x464D4350
)

const (
	handshakeVersion   = 1
	handshakeHeaderLen = 32
	handshakeSize      = 32
	frameHeaderSize    = 12
)

// adpcmPaddingSlack is the allowance above the theoretical max ADPCM payload
// size for encoder block padding. Not formally justified upstream; kept as a
// bound, not required to be tight.
const adpcmPaddingSlack = 16
