package transport

import (
	"net/http"

	"github.com/lariat-iot/audiogate/internal/ingest"
	"github.com/lariat-iot/audiogate/internal/logging"
)

// NewServeMux wires the full HTTP/WebSocket surface: liveness, echo, and the
// ingest upgrade endpoints, using the standard library's method/wildcard
// routing patterns.
func NewServeMux(depsFactory func() ingest.SessionDeps, logger logging.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", HandleHello)
	mux.HandleFunc("GET /hello", HandleHello)
	mux.HandleFunc("POST /echo", HandleEcho)

	mux.Handle("GET /ws", IngestHandler(depsFactory, nil, logger))
	mux.Handle("GET /ws/{hwid}", IngestHandler(depsFactory, func(r *http.Request) string {
		return ingest.SanitizeHwid(r.PathValue("hwid"))
	}, logger))
	mux.Handle("GET /ws/echo", EchoHandler(logger))

	return mux
}
