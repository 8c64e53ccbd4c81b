package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/palettekit/internal/protocol"
)

// RequestType selects how the server treats a request line.
type RequestType string

const (
	// RequestCommand executes one engine command.
	RequestCommand RequestType = "command"
	// RequestSubscribe turns the connection into an event stream.
	RequestSubscribe RequestType = "subscribe"
	// RequestReload asks the daemon to reload its configuration.
	RequestReload RequestType = "reload"
)

// Request is one JSON line from client to server.
type Request struct {
	ID      string            `json:"id,omitempty"`
	Type    RequestType       `json:"type"`
	Command *protocol.Command `json:"command,omitempty"`
	Filter  *Filter           `json:"filter,omitempty"`
}

// Response is one JSON line from server to client. Exactly one of Result,
// Event or Error is set, except for the subscribe acknowledgement which
// carries only Subscribed.
type Response struct {
	ID         string           `json:"id,omitempty"`
	Result     *protocol.Result `json:"result,omitempty"`
	Event      *protocol.Event  `json:"event,omitempty"`
	Subscribed string           `json:"subscribed,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Filter narrows a subscription. Empty fields match everything.
type Filter struct {
	Services []string `json:"services,omitempty"`
	WindowID string   `json:"windowId,omitempty"`
}

// Match reports whether e passes the filter.
func (f *Filter) Match(e protocol.Event) bool {
	if f == nil {
		return true
	}
	if f.WindowID != "" && e.WindowID != f.WindowID {
		return false
	}
	if len(f.Services) == 0 {
		return true
	}
	for _, s := range f.Services {
		if s == e.Service {
			return true
		}
	}
	return false
}

// ParseRequest parses a request from JSON bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Type == "" && req.Command != nil {
		req.Type = RequestCommand
	}
	switch req.Type {
	case RequestCommand:
		if req.Command == nil {
			return nil, fmt.Errorf("command request without command")
		}
	case RequestSubscribe, RequestReload:
	default:
		return nil, fmt.Errorf("unknown request type %q", req.Type)
	}
	return &req, nil
}

// Marshal converts a response to a JSON line.
func (r *Response) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
