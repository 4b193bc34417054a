package transport

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lariat-iot/audiogate/internal/ingest"
	"github.com/lariat-iot/audiogate/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		// Device firmware does not send a browser-style Origin header; allow
		// all origins rather than rejecting legitimate device connections.
		return true
	},
}

// IngestHandler builds the HTTP handler for /ws and /ws/{hwid}. hwidFromPath
// extracts and sanitizes the hwid tag from the request, or returns "" when
// absent.
func IngestHandler(depsFactory func() ingest.SessionDeps, hwidFromPath func(*http.Request) string, logger logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			http.Error(w, "websocket upgrade required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("transport: websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(ingest.MaxMessageBytes)

		hwid := ""
		if hwidFromPath != nil {
			hwid = hwidFromPath(r)
		}

		session := ingest.New(conn, depsFactory(), hwid)
		session.Run()
	}
}

// EchoHandler upgrades to a WebSocket and reflects every complete
// binary/text message back unchanged until the client closes.
func EchoHandler(logger logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			http.Error(w, "websocket upgrade required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("transport: echo websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(ingest.MaxMessageBytes)

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}
}
