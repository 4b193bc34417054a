package ingest

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHandshakeMsg(streamID, sampleRate uint32, channels, codec, frameSamples uint16) []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], 0x41445043)
	binary.LittleEndian.PutUint16(buf[4:6], 1)
	binary.LittleEndian.PutUint16(buf[6:8], 32)
	binary.LittleEndian.PutUint32(buf[8:12], streamID)
	binary.LittleEndian.PutUint32(buf[12:16], sampleRate)
	binary.LittleEndian.PutUint16(buf[16:18], channels)
	binary.LittleEndian.PutUint16(buf[18:20], codec)
	binary.LittleEndian.PutUint16(buf[20:22], frameSamples)
	binary.LittleEndian.PutUint64(buf[24:32], 0)
	return buf
}

func buildFrameMsg(magic uint32, seq uint32, payload []byte) []byte {
	buf := make([]byte, 12+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[8:12], seq)
	copy(buf[12:], payload)
	return buf
}

// scriptedConn feeds a fixed sequence of inbound messages and records every
// outbound WriteMessage call.
type scriptedConn struct {
	inbound []struct {
		mt   int
		data []byte
	}
	i       int
	written []struct {
		mt   int
		data []byte
	}
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	if c.i >= len(c.inbound) {
		return 0, nil, websocket.ErrCloseSent
	}
	m := c.inbound[c.i]
	c.i++
	return m.mt, m.data, nil
}

func (c *scriptedConn) WriteMessage(mt int, data []byte) error {
	c.written = append(c.written, struct {
		mt   int
		data []byte
	}{mt, data})
	return nil
}

func newTestDeps(fs *fakeFileSystem, up *fakeUploader, clock Clock) SessionDeps {
	return SessionDeps{
		Clock:      clock,
		FileSystem: fs,
		Uploader:   up,
		Registry:   nil,
		Config:     Config{BaseDir: "/data", Prefix: "received", RotationInterval: 10 * time.Second},
	}
}

func TestIngestSession_PCMHappyPath(t *testing.T) {
	payload := make([]byte, 320)
	conn := &scriptedConn{inbound: []struct {
		mt   int
		data []byte
	}{
		{websocket.BinaryMessage, buildHandshakeMsg(0x2A, 16000, 1, 0, 160)},
		{websocket.BinaryMessage, buildFrameMsg(0x464D4350, 7, payload)},
		{websocket.CloseMessage, nil},
	}}

	fs := newFakeFileSystem()
	up := &fakeUploader{}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	sess := New(conn, newTestDeps(fs, up, clock), "")
	sess.Run()

	assert.Len(t, fs.files, 2)
	assert.Equal(t, phaseClosed, sess.phase)
	assert.Equal(t, uint64(1), sess.act.totalFrames)
	assert.Equal(t, uint64(332), sess.act.totalBytes)
	assert.Equal(t, uint64(320), sess.act.totalPcm)
}

func TestIngestSession_BadHandshakeCloses1008(t *testing.T) {
	conn := &scriptedConn{inbound: []struct {
		mt   int
		data []byte
	}{
		{websocket.BinaryMessage, make([]byte, 32)}, // all-zero magic
	}}
	fs := newFakeFileSystem()
	up := &fakeUploader{}
	clock := &fakeClock{now: time.Now()}

	sess := New(conn, newTestDeps(fs, up, clock), "")
	sess.Run()

	require.Len(t, conn.written, 1)
	assert.Equal(t, websocket.CloseMessage, conn.written[0].mt)
	assert.Equal(t, websocket.FormatCloseMessage(1008, "invalid handshake"), conn.written[0].data)
	assert.Empty(t, fs.files)
}

func TestIngestSession_SequenceGapDoesNotClose(t *testing.T) {
	conn := &scriptedConn{inbound: []struct {
		mt   int
		data []byte
	}{
		{websocket.BinaryMessage, buildHandshakeMsg(0x2A, 16000, 1, 0, 160)},
		{websocket.BinaryMessage, buildFrameMsg(0x464D4350, 100, make([]byte, 320))},
		{websocket.BinaryMessage, buildFrameMsg(0x464D4350, 102, make([]byte, 320))},
		{websocket.CloseMessage, nil},
	}}
	fs := newFakeFileSystem()
	up := &fakeUploader{}
	clock := &fakeClock{now: time.Now()}

	sess := New(conn, newTestDeps(fs, up, clock), "")
	sess.Run()

	assert.Equal(t, uint32(103), sess.act.nextSeq)
	assert.Equal(t, uint64(2), sess.act.totalFrames)
}

func TestIngestSession_CodecMismatchCloses1008(t *testing.T) {
	conn := &scriptedConn{inbound: []struct {
		mt   int
		data []byte
	}{
		{websocket.BinaryMessage, buildHandshakeMsg(0x2A, 16000, 1, 0, 160)}, // codec=PCM
		{websocket.BinaryMessage, buildFrameMsg(0x41445046, 0, make([]byte, 84))},
	}}
	fs := newFakeFileSystem()
	up := &fakeUploader{}
	clock := &fakeClock{now: time.Now()}

	sess := New(conn, newTestDeps(fs, up, clock), "")
	sess.Run()

	require.Len(t, conn.written, 1)
	assert.Equal(t, websocket.CloseMessage, conn.written[0].mt)
	assert.Equal(t, websocket.FormatCloseMessage(1008, "frame codec mismatch"), conn.written[0].data)
}
