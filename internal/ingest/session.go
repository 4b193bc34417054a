package ingest

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lariat-iot/audiogate/internal/codec/adpcm"
	"github.com/lariat-iot/audiogate/internal/logging"
	"github.com/lariat-iot/audiogate/internal/protocol"
	"github.com/lariat-iot/audiogate/internal/registry"
	"github.com/lariat-iot/audiogate/internal/storage"
)

// Conn is the transport surface an IngestSession needs. *websocket.Conn
// satisfies it directly; tests can supply a scripted fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// Config carries the session's file-layout settings, independent of the
// uploader's own Config.
type Config struct {
	BaseDir          string
	Prefix           string
	RotationInterval time.Duration
}

// SessionDeps collects an IngestSession's collaborators, wired explicitly at
// construction rather than through a runtime-managed container.
type SessionDeps struct {
	Clock      Clock
	FileSystem FileSystem
	Uploader   storage.ObjectUploader
	Registry   *registry.SessionRegistry
	Config     Config
	Logger     logging.Logger
}

// phase is the session's position in the AWAITING_HANDSHAKE ->
// AWAITING_FRAME -> CLOSED state machine.
type phase int

const (
	phaseAwaitingHandshake phase = iota
	phaseAwaitingFrame
	phaseClosed
)

// active holds the state that only exists once a handshake has been
// accepted, so a handshake-less session has no nullable handshake field to
// guard against.
type active struct {
	handshake   protocol.Handshake
	firstSeen   time.Time
	nextSeq     uint32
	haveSeq     bool
	rotator     *SegmentRotator
	totalFrames uint64
	totalBytes  uint64
	totalPcm    uint64
}

// IngestSession drives one connection's protocol state machine: it expects
// a handshake first, then a stream of audio frames, reassembling fragmented
// WebSocket messages and enforcing the wire protocol along the way.
type IngestSession struct {
	conn     Conn
	deps     SessionDeps
	streamID uint32
	hwid     string
	phase    phase
	act      *active
}

// New constructs a session for one connection. hwid is the already-sanitized
// tag taken from the URL path, or "" if absent.
func New(conn Conn, deps SessionDeps, hwid string) *IngestSession {
	if deps.Logger == nil {
		deps.Logger = logging.Default{}
	}
	return &IngestSession{conn: conn, deps: deps, hwid: hwid, phase: phaseAwaitingHandshake}
}

// Run processes messages until the connection closes or a protocol error
// ends the session. It always returns after running teardown.
func (s *IngestSession) Run() {
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			s.teardown(1000, "bye")
			return
		}

		if mt == websocket.CloseMessage {
			s.closeWith(1000, "bye")
			s.teardown(1000, "bye")
			return
		}
		if mt != websocket.BinaryMessage {
			s.closeWith(1003, "binary required")
			s.teardown(1003, "binary required")
			return
		}

		if closeCode, reason, fatal := s.handleBinary(data); fatal {
			s.closeWith(closeCode, reason)
			s.teardown(closeCode, reason)
			return
		}
	}
}

// handleBinary processes one reassembled binary message. fatal reports
// whether the session must close; closeCode/reason are only meaningful when
// fatal is true.
func (s *IngestSession) handleBinary(data []byte) (closeCode int, reason string, fatal bool) {
	switch s.phase {
	case phaseAwaitingHandshake:
		h, err := protocol.ParseHandshake(data)
		if err != nil {
			return 1008, "invalid handshake", true
		}
		s.onHandshake(h)
		return 0, "", false

	case phaseAwaitingFrame:
		frame, err := protocol.ParseFrame(data)
		if err != nil {
			return 1008, "invalid audio frame", true
		}
		if err := frame.Validate(s.act.handshake); err != nil {
			if errors.Is(err, protocol.ErrFrameCodecMismatch) {
				return 1008, "frame codec mismatch", true
			}
			return 1008, "frame payload size invalid", true
		}
		s.acceptFrame(frame)
		return 0, "", false

	default:
		return 1000, "bye", true
	}
}

func (s *IngestSession) onHandshake(h protocol.Handshake) {
	s.streamID = h.StreamID
	rotator := NewSegmentRotator(
		s.deps.Config.BaseDir,
		h.StreamID,
		s.hwid,
		h.SampleRate,
		h.Channels,
		h.WavEnabled(),
		s.deps.Config.RotationInterval,
		s.deps.Clock,
		s.deps.FileSystem,
		s.deps.Uploader,
		s.deps.Registry,
		s.deps.Config.Prefix,
		s.deps.Logger,
	)
	s.act = &active{handshake: h, rotator: rotator, firstSeen: s.deps.Clock.Now()}
	s.phase = phaseAwaitingFrame
	s.deps.Registry.RegisterStream(h.StreamID, s.hwid, h)
	s.deps.Logger.Info("IngestSession: handshake accepted streamId=%d sampleRate=%d channels=%d codec=%d wavEnabled=%v",
		h.StreamID, h.SampleRate, h.Channels, h.Codec, h.WavEnabled())
}

func (s *IngestSession) acceptFrame(frame protocol.AudioFrame) {
	a := s.act

	if a.haveSeq && frame.Seq != a.nextSeq {
		s.deps.Logger.Warn("SequenceGap: streamId=%d expected=%d got=%d", s.streamID, a.nextSeq, frame.Seq)
	}
	a.nextSeq = frame.Seq + 1
	a.haveSeq = true

	a.totalFrames++
	a.totalBytes += uint64(frame.WireLength())

	if err := a.rotator.MaybeRotate(context.Background()); err != nil {
		s.deps.Logger.Error("FileIoError: rotate segment: %v", err)
		return
	}

	wireFrame := encodeWireFrame(frame)
	if err := a.rotator.WriteRaw(wireFrame); err != nil {
		s.deps.Logger.Error("FileIoError: %v", err)
		return
	}

	if !a.handshake.WavEnabled() {
		return
	}

	switch a.handshake.Codec {
	case protocol.CodecPCMS16LE:
		if err := a.rotator.WritePCM(frame.Payload); err != nil {
			s.deps.Logger.Error("FileIoError: %v", err)
			return
		}
		a.totalPcm += uint64(len(frame.Payload))

	case protocol.CodecADPCM:
		pcm, err := adpcm.Decode(frame.Payload)
		if err != nil {
			s.deps.Logger.Warn("AdpcmDecodeError: streamId=%d seq=%d: %v", s.streamID, frame.Seq, err)
			return
		}
		if err := a.rotator.WritePCM(pcm); err != nil {
			s.deps.Logger.Error("FileIoError: %v", err)
			return
		}
		a.totalPcm += uint64(len(pcm))
	}
}

// encodeWireFrame reconstructs the full 12-byte-header-plus-payload wire
// representation of an already-parsed frame, for persistence to the raw
// segment file.
func encodeWireFrame(f protocol.AudioFrame) []byte {
	buf := make([]byte, 12+len(f.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], f.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], f.Length)
	binary.LittleEndian.PutUint32(buf[8:12], f.Seq)
	copy(buf[12:], f.Payload)
	return buf
}

func (s *IngestSession) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
}

// teardown finalizes the session's rotator (if a handshake was ever
// accepted) and writes the summary log line and registry record. Upload and
// registry writes use a fresh non-cancellable context so a cancelled client
// connection still produces a final upload attempt.
func (s *IngestSession) teardown(closeCode int, reason string) {
	s.phase = phaseClosed

	if s.act == nil {
		s.deps.Logger.Info("IngestSession: closed before handshake, code=%d reason=%q", closeCode, reason)
		return
	}

	a := s.act
	a.rotator.Close()

	s.deps.Registry.RecordStream(registry.StreamRecord{
		StreamID:      s.streamID,
		Hwid:          s.hwid,
		FirstSeen:     a.firstSeen,
		LastSeen:      s.deps.Clock.Now(),
		SampleRate:    a.handshake.SampleRate,
		Channels:      a.handshake.Channels,
		Codec:         uint16(a.handshake.Codec),
		TotalFrames:   a.totalFrames,
		TotalBytes:    a.totalBytes,
		TotalPcmBytes: a.totalPcm,
		CloseCode:     uint16(closeCode),
		CloseReason:   reason,
	})

	s.deps.Logger.Info(
		"IngestSession: summary streamId=%d hwid=%q totalFrames=%d totalBytes=%d totalPcmBytes=%d",
		s.streamID, s.hwid, a.totalFrames, a.totalBytes, a.totalPcm,
	)
}
