package wav

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFile is a minimal in-memory WriteSeeker for testing header finalization.
type memFile struct {
	buf []byte
	pos int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	m.pos = offset
	return m.pos, nil
}

func TestWriter_HeaderFinalization(t *testing.T) {
	f := &memFile{}
	w, err := Create(f, 16000, 1)
	require.NoError(t, err)

	samples := bytes.Repeat([]byte{0x00}, 320)
	require.NoError(t, w.Write(samples))
	require.NoError(t, w.Close())

	assert.Equal(t, "RIFF", string(f.buf[0:4]))
	riffSize := binary.LittleEndian.Uint32(f.buf[4:8])
	assert.Equal(t, uint32(36+320), riffSize)

	assert.Equal(t, "WAVE", string(f.buf[8:12]))
	assert.Equal(t, "fmt ", string(f.buf[12:16]))
	assert.Equal(t, "data", string(f.buf[36:40]))

	dataSize := binary.LittleEndian.Uint32(f.buf[40:44])
	assert.Equal(t, uint32(320), dataSize)
	assert.Len(t, f.buf, 44+320)
}

func TestWriter_EmptyStream(t *testing.T) {
	f := &memFile{}
	w, err := Create(f, 8000, 2)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	riffSize := binary.LittleEndian.Uint32(f.buf[4:8])
	assert.Equal(t, uint32(36), riffSize)
	dataSize := binary.LittleEndian.Uint32(f.buf[40:44])
	assert.Equal(t, uint32(0), dataSize)
}
