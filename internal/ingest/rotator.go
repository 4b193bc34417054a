package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lariat-iot/audiogate/internal/audio/annotate"
	"github.com/lariat-iot/audiogate/internal/audio/wav"
	"github.com/lariat-iot/audiogate/internal/logging"
	"github.com/lariat-iot/audiogate/internal/registry"
	"github.com/lariat-iot/audiogate/internal/storage"
)

// DefaultRotationInterval is the wall-clock segment length used when a
// rotator is built without an explicit override.
const DefaultRotationInterval = 10 * time.Second

// segment holds the open file handles and running state for one rotation
// window. Exactly one segment is open per session at a time.
type segment struct {
	openedAt   time.Time
	rawFile    SegmentFile
	rawPath    string
	wavFile    SegmentFile
	wavWriter  *wav.Writer
	wavPath    string
	volumeAcc  annotate.Accumulator
}

// SegmentRotator owns the "current segment" for one ingest session: the raw
// wire-frame file and, when the handshake permits, the parallel WAV file.
// It rotates on a wall-clock interval and hands every closed file to the
// uploader and the session registry.
type SegmentRotator struct {
	baseDir      string
	hwid         string
	streamID     uint32
	sampleRate   uint32
	channels     uint16
	wavEnabled   bool
	dirReady     bool
	interval     time.Duration

	clock    Clock
	fs       FileSystem
	uploader storage.ObjectUploader
	registry *registry.SessionRegistry
	prefix   string
	logger   logging.Logger

	current *segment
}

// NewSegmentRotator constructs a rotator for one session. sampleRate and
// channels are the handshake's values, used for the WAV header when
// wavEnabled.
func NewSegmentRotator(
	baseDir string,
	streamID uint32,
	hwid string,
	sampleRate uint32,
	channels uint16,
	wavEnabled bool,
	interval time.Duration,
	clock Clock,
	fs FileSystem,
	uploader storage.ObjectUploader,
	reg *registry.SessionRegistry,
	prefix string,
	logger logging.Logger,
) *SegmentRotator {
	if logger == nil {
		logger = logging.Default{}
	}
	if interval <= 0 {
		interval = DefaultRotationInterval
	}
	return &SegmentRotator{
		baseDir:    baseDir,
		hwid:       hwid,
		streamID:   streamID,
		sampleRate: sampleRate,
		channels:   channels,
		wavEnabled: wavEnabled,
		interval:   interval,
		clock:      clock,
		fs:         fs,
		uploader:   uploader,
		registry:   reg,
		prefix:     prefix,
		logger:     logger,
	}
}

// MaybeRotate is called once per accepted frame. If no segment is open, or
// the current one has reached the rotation interval, it closes (and
// uploads) the current segment and opens a new one.
func (r *SegmentRotator) MaybeRotate(ctx context.Context) error {
	now := r.clock.Now()
	if r.current != nil && now.Sub(r.current.openedAt) < r.interval {
		return nil
	}
	if r.current != nil {
		r.closeAndUpload(ctx, r.current)
		r.current = nil
	}
	return r.open(now)
}

func (r *SegmentRotator) open(now time.Time) error {
	dir := filepath.Join(r.baseDir, "data", "received")
	if r.hwid != "" {
		dir = filepath.Join(dir, r.hwid)
	}
	if !r.dirReady {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ingest: create segment directory: %w", err)
		}
		r.dirReady = true
	}

	stamp := now.UTC().Format("20060102_150405")
	stem := fmt.Sprintf("stream_%d_", r.streamID)
	if r.hwid != "" {
		stem = fmt.Sprintf("stream_%d_%s_", r.streamID, r.hwid)
	}
	stem += stamp

	rawPath := filepath.Join(dir, stem+".bin")
	rawFile, err := r.fs.CreateNew(rawPath)
	if err != nil {
		return fmt.Errorf("ingest: open segment file %s: %w", rawPath, err)
	}

	seg := &segment{openedAt: now, rawFile: rawFile, rawPath: rawPath}

	if r.wavEnabled {
		wavPath := filepath.Join(dir, stem+".wav")
		wavFile, err := r.fs.CreateNew(wavPath)
		if err != nil {
			rawFile.Close()
			return fmt.Errorf("ingest: open wav file %s: %w", wavPath, err)
		}
		writer, err := wav.Create(wavFile, r.sampleRate, r.channels)
		if err != nil {
			wavFile.Close()
			rawFile.Close()
			return fmt.Errorf("ingest: init wav header %s: %w", wavPath, err)
		}
		seg.wavFile = wavFile
		seg.wavWriter = writer
		seg.wavPath = wavPath
	}

	r.current = seg
	return nil
}

// WriteRaw appends the full wire frame (header + payload) to the current
// segment's raw file and flushes.
func (r *SegmentRotator) WriteRaw(data []byte) error {
	if _, err := r.current.rawFile.Write(data); err != nil {
		return fmt.Errorf("ingest: write raw segment: %w", err)
	}
	return nil
}

// WritePCM appends decoded PCM to the current segment's WAV file, when the
// session has WAV output enabled, and feeds the volume accumulator.
func (r *SegmentRotator) WritePCM(pcm []byte) error {
	if r.current == nil || r.current.wavWriter == nil {
		return nil
	}
	if err := r.current.wavWriter.Write(pcm); err != nil {
		return fmt.Errorf("ingest: write wav segment: %w", err)
	}
	r.current.volumeAcc.Write(pcm)
	return nil
}

// Close finalizes and uploads the current segment, if any, using a fresh
// non-cancellable context so a cancelled client connection still produces a
// final upload attempt.
func (r *SegmentRotator) Close() {
	if r.current == nil {
		return
	}
	r.closeAndUpload(context.Background(), r.current)
	r.current = nil
}

func (r *SegmentRotator) closeAndUpload(ctx context.Context, seg *segment) {
	closedAt := r.clock.Now()

	if seg.wavWriter != nil {
		if err := seg.wavWriter.Close(); err != nil {
			r.logger.Error("FileIoError: finalize wav %s: %v", seg.wavPath, err)
		}
	}
	if seg.wavFile != nil {
		seg.wavFile.Close()
	}
	if err := seg.rawFile.Close(); err != nil {
		r.logger.Error("FileIoError: close raw segment %s: %v", seg.rawPath, err)
	}

	hash, err := annotate.HashFile(seg.rawPath)
	if err != nil {
		r.logger.Warn("AnnotationError: hash %s: %v", seg.rawPath, err)
	} else {
		r.registry.RecordSegment(registry.SegmentRecord{
			StreamID:    r.streamID,
			Hwid:        r.hwid,
			OpenedAt:    seg.openedAt,
			ClosedAt:    closedAt,
			BinPath:     seg.rawPath,
			WavPath:     seg.wavPath,
			ContentHash: hash,
			VolumeDB:    seg.volumeAcc.VolumeDB(),
		})
	}

	binName := filepath.Base(seg.rawPath)
	r.uploader.Upload(ctx, seg.rawPath, storage.Key(r.prefix, r.hwid, binName), "bin")
	if seg.wavPath != "" {
		wavName := filepath.Base(seg.wavPath)
		r.uploader.Upload(ctx, seg.wavPath, storage.Key(r.prefix, r.hwid, wavName), "wav")
	}
}
