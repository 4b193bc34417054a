package registry

// SQL schemas for the ClickHouse-backed session registry tables.

const (
	// IngestStreamsTableSQL creates the ingest_streams table, one row per
	// completed (or in-progress) ingest session.
	IngestStreamsTableSQL = `
		CREATE TABLE IF NOT EXISTS ingest_streams (
			stream_id UInt32,
			hwid String,
			first_seen DateTime64(3),
			last_seen DateTime64(3),
			sample_rate UInt32,
			channels UInt16,
			codec UInt16,
			total_frames UInt64,
			total_bytes UInt64,
			total_pcm_bytes UInt64,
			close_code UInt16,
			close_reason String
		) ENGINE = ReplacingMergeTree(last_seen)
		ORDER BY stream_id
	`

	// IngestSegmentsTableSQL creates the ingest_segments table, one row per
	// rotated or teardown-closed segment.
	IngestSegmentsTableSQL = `
		CREATE TABLE IF NOT EXISTS ingest_segments (
			segment_id String,
			stream_id UInt32,
			hwid String,
			opened_at DateTime64(3),
			closed_at DateTime64(3),
			bin_path String,
			wav_path String,
			content_hash String,
			volume_db Float64
		) ENGINE = MergeTree()
		ORDER BY (stream_id, opened_at)
	`
)

// AllTables returns all table creation SQL statements for the registry.
func AllTables() []string {
	return []string{
		IngestStreamsTableSQL,
		IngestSegmentsTableSQL,
	}
}
