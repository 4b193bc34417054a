package ingest

import "fmt"

// MaxMessageBytes bounds the accumulated size of a single logical message
// assembled from fragments. 64 KiB comfortably covers one handshake or
// frame; a message may arrive in any number of fragments, but one whose
// accumulated size exceeds this bound is rejected. The transport layer also
// enforces this as a hard per-connection read limit.
const MaxMessageBytes = 64 * 1024

// FragmentSource yields the next fragment of a WebSocket message stream.
// isFinal reports whether this fragment completes the current logical
// message. Implementations isolate Reassemble from transport idiosyncrasies
// so the reassembly logic itself is a pure, scriptable function. The
// production session does not use it: it reads whole messages through
// gorilla/websocket's Conn.ReadMessage, which reassembles fragments itself.
type FragmentSource interface {
	NextFragment() (messageType int, data []byte, isFinal bool, err error)
}

// Reassemble accumulates fragments from src until a final fragment arrives,
// returning one contiguous (messageType, payload) pair per logical message.
func Reassemble(src FragmentSource) (messageType int, payload []byte, err error) {
	var buf []byte
	for {
		mt, data, isFinal, ferr := src.NextFragment()
		if ferr != nil {
			return 0, nil, ferr
		}
		if buf == nil {
			messageType = mt
		}
		buf = append(buf, data...)
		if len(buf) > MaxMessageBytes {
			return 0, nil, fmt.Errorf("ingest: reassembled message exceeds %d bytes", MaxMessageBytes)
		}
		if isFinal {
			return messageType, buf, nil
		}
	}
}
