package registry

import "time"

// StreamRecord summarizes one completed or in-progress ingest session.
type StreamRecord struct {
	StreamID      uint32
	Hwid          string
	FirstSeen     time.Time
	LastSeen      time.Time
	SampleRate    uint32
	Channels      uint16
	Codec         uint16
	TotalFrames   uint64
	TotalBytes    uint64
	TotalPcmBytes uint64
	CloseCode     uint16
	CloseReason   string
}

// SegmentRecord summarizes one rotated or teardown-closed segment.
type SegmentRecord struct {
	SegmentID   string
	StreamID    uint32
	Hwid        string
	OpenedAt    time.Time
	ClosedAt    time.Time
	BinPath     string
	WavPath     string
	ContentHash string
	VolumeDB    float64
}
