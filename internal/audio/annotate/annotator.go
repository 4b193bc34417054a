// Package annotate computes a content hash and loudness estimate for a
// finished ingest segment, adapted from the teacher's per-message audio
// aggregation to operate on a closed file and an accumulated PCM stream
// rather than one complete in-memory buffer.
package annotate

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
)

// referenceLevel is the maximum magnitude of a signed 16-bit PCM sample,
// used as the 0 dB reference.
const referenceLevel = 32768.0

// minimumRMS avoids log(0) for near-silent segments.
const minimumRMS = 1.0

// Annotation holds the computed metadata for one closed segment.
type Annotation struct {
	ContentHash string
	VolumeDB    float64
}

// HashFile streams the file at path through SHA-256 without loading it
// entirely into memory, adapted from the teacher's ComputeAudioHash (which
// hashes an in-memory buffer) to read from a closed file instead.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("annotate: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("annotate: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Accumulator collects RMS statistics across every PCM write for a segment,
// so volume can be computed once at close without retaining the full
// decoded buffer in memory.
type Accumulator struct {
	sumSquares float64
	sampleN    int64
}

// Write feeds 16-bit little-endian PCM samples into the running RMS
// accumulation.
func (a *Accumulator) Write(pcm []byte) {
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(pcm[i : i+2])))
		a.sumSquares += sample * sample
		a.sampleN++
	}
}

// VolumeDB returns the RMS-to-dB loudness estimate for all samples written
// so far, clamped to [-80, 0].
func (a *Accumulator) VolumeDB() float64 {
	if a.sampleN == 0 {
		return decibels(minimumRMS)
	}
	rms := math.Sqrt(a.sumSquares / float64(a.sampleN))
	if rms < minimumRMS {
		rms = minimumRMS
	}
	return decibels(rms)
}

func decibels(rms float64) float64 {
	db := 20.0 * math.Log10(rms/referenceLevel)
	if db < -80.0 {
		db = -80.0
	}
	if db > 0.0 {
		db = 0.0
	}
	return db
}
