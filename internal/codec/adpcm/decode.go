package adpcm

import (
	"encoding/binary"
	"fmt"
)

// blockHeaderSize is the 4-byte IMA ADPCM block preamble: int16 predictor,
// uint8 step index, uint8 reserved.
const blockHeaderSize = 4

// Decode converts one IMA ADPCM block to 16-bit little-endian linear PCM.
// The block is the complete frame payload: a 4-byte header followed by a
// 4-bit-nibble sample stream, two samples per byte, low nibble first.
func Decode(block []byte) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, fmt.Errorf("adpcm: block too short (%d bytes)", len(block))
	}

	predictor := int32(int16(binary.LittleEndian.Uint16(block[0:2])))
	stepIndex := int32(block[2])
	if stepIndex > 88 {
		return nil, fmt.Errorf("adpcm: step index %d out of range", stepIndex)
	}

	nibbles := block[blockHeaderSize:]
	pcm := make([]byte, len(nibbles)*2*2)

	writeSample := func(i int, sample int16) {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}

	sampleIdx := 0
	for _, b := range nibbles {
		for _, nibble := range [2]byte{b & 0x0f, (b >> 4) & 0x0f} {
			predictor, stepIndex = decodeNibble(predictor, stepIndex, int32(nibble))
			writeSample(sampleIdx, int16(predictor))
			sampleIdx++
		}
	}

	return pcm, nil
}

// decodeNibble applies one IMA ADPCM nibble to the running predictor and
// step index, returning the updated state.
func decodeNibble(predictor, stepIndex, nibble int32) (newPredictor, newStepIndex int32) {
	step := stepTable[stepIndex]

	diff := step >> 3
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&1 != 0 {
		diff += step >> 2
	}
	if nibble&8 != 0 {
		diff = -diff
	}

	predictor += diff
	predictor = clamp16(predictor)

	stepIndex += indexTable[nibble]
	stepIndex = clampStepIndex(stepIndex)

	return predictor, stepIndex
}

func clamp16(v int32) int32 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}

func clampStepIndex(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 88 {
		return 88
	}
	return v
}
