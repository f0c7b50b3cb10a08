package http

import (
	"encoding/json"
	"net/http"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hyperterse/dbmcp/core/runtime/mcp"
)

const (
	mimeJSON        = "application/json"
	mimeEventStream = "text/event-stream"
)

// messageHandler serves POST /message. Each request gets its own MCP server
// and stateless transport, so JSON-RPC ids from concurrent clients never
// share a session.
type messageHandler struct {
	stream *mcpsdk.StreamableHTTPHandler
	json   *mcpsdk.StreamableHTTPHandler
}

func newMessageHandler(adapter *mcp.Adapter) *messageHandler {
	getServer := func(*http.Request) *mcpsdk.Server {
		return adapter.NewServer()
	}
	return &messageHandler{
		stream: mcpsdk.NewStreamableHTTPHandler(getServer, &mcpsdk.StreamableHTTPOptions{
			Stateless: true,
		}),
		json: mcpsdk.NewStreamableHTTPHandler(getServer, &mcpsdk.StreamableHTTPOptions{
			Stateless:    true,
			JSONResponse: true,
		}),
	}
}

// ServeHTTP answers with an event stream when the client accepts one and
// with plain JSON otherwise. The SDK insists on both media types in Accept,
// so the header is normalized before delegating.
func (h *messageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	wantsStream := strings.Contains(accept, mimeEventStream)

	r = r.Clone(r.Context())
	r.Header.Set("Accept", mimeJSON+", "+mimeEventStream)

	if wantsStream {
		h.stream.ServeHTTP(w, r)
		return
	}
	h.json.ServeHTTP(w, r)
}

func handleMessageOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "POST, OPTIONS")
	w.WriteHeader(http.StatusOK)
}

// handleHealthz handles heartbeat/health check requests
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", mimeJSON)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
