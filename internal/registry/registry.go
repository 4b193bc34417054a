// Package registry persists ingest session and segment metadata to
// ClickHouse for later querying. Every write is best-effort: a registry
// error is logged and never changes the caller's outcome.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"github.com/lariat-iot/audiogate/internal/logging"
	"github.com/lariat-iot/audiogate/internal/protocol"
)

// SessionRegistry records stream and segment metadata. A nil *SessionRegistry
// is valid: every method becomes a no-op, so the core ingest path never
// depends on a reachable metadata store.
type SessionRegistry struct {
	conn   driver.Conn
	logger logging.Logger
}

// New connects to ClickHouse at addr and initializes the registry schema.
func New(addr, database, username, password string, logger logging.Logger) (*SessionRegistry, error) {
	if logger == nil {
		logger = logging.Default{}
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("registry: connect to clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("registry: ping clickhouse: %w", err)
	}

	reg := &SessionRegistry{conn: conn, logger: logger}
	if err := reg.initSchema(context.Background()); err != nil {
		return nil, err
	}

	logger.Info("SessionRegistry: connected to ClickHouse at %s", addr)
	return reg, nil
}

func (r *SessionRegistry) initSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := r.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("registry: create table: %w", err)
		}
	}
	return nil
}

// RegisterStream records the start of a session, adapted from the teacher's
// device auto-registration on first sensor reading. Best-effort.
func (r *SessionRegistry) RegisterStream(streamID uint32, hwid string, h protocol.Handshake) {
	if r == nil {
		return
	}
	now := time.Now()
	query := `
		INSERT INTO ingest_streams
			(stream_id, hwid, first_seen, last_seen, sample_rate, channels, codec,
			 total_frames, total_bytes, total_pcm_bytes, close_code, close_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.conn.Exec(context.Background(), query,
		streamID, hwid, now, now, h.SampleRate, h.Channels, uint16(h.Codec),
		uint64(0), uint64(0), uint64(0), uint16(0), "",
	)
	if err != nil {
		r.logger.Warn("RegistryError: register stream %d: %v", streamID, err)
	}
}

// RecordStream writes the final summary row for a completed session.
// Best-effort.
func (r *SessionRegistry) RecordStream(rec StreamRecord) {
	if r == nil {
		return
	}
	query := `
		INSERT INTO ingest_streams
			(stream_id, hwid, first_seen, last_seen, sample_rate, channels, codec,
			 total_frames, total_bytes, total_pcm_bytes, close_code, close_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.conn.Exec(context.Background(), query,
		rec.StreamID, rec.Hwid, rec.FirstSeen, rec.LastSeen, rec.SampleRate, rec.Channels, rec.Codec,
		rec.TotalFrames, rec.TotalBytes, rec.TotalPcmBytes, rec.CloseCode, rec.CloseReason,
	)
	if err != nil {
		r.logger.Warn("RegistryError: record stream %d: %v", rec.StreamID, err)
	}
}

// RecordSegment writes one closed segment's metadata row. Best-effort; the
// caller skips this call entirely when annotation (content hashing) failed,
// so no segment row is ever written with a missing ContentHash.
func (r *SessionRegistry) RecordSegment(rec SegmentRecord) {
	if r == nil {
		return
	}
	if rec.SegmentID == "" {
		rec.SegmentID = uuid.NewString()
	}
	query := `
		INSERT INTO ingest_segments
			(segment_id, stream_id, hwid, opened_at, closed_at, bin_path, wav_path, content_hash, volume_db)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.conn.Exec(context.Background(), query,
		rec.SegmentID, rec.StreamID, rec.Hwid, rec.OpenedAt, rec.ClosedAt,
		rec.BinPath, rec.WavPath, rec.ContentHash, rec.VolumeDB,
	)
	if err != nil {
		r.logger.Warn("RegistryError: record segment for stream %d: %v", rec.StreamID, err)
	}
}

// Close closes the underlying ClickHouse connection. Safe to call on a nil
// registry.
func (r *SessionRegistry) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("registry: close: %w", err)
	}
	r.logger.Info("SessionRegistry: ClickHouse connection closed")
	return nil
}
