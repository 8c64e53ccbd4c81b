package mcp

import (
	"github.com/1broseidon/palettekit/internal/protocol"
)

// CommandInput is the input for the palette_command tool.
type CommandInput struct {
	Service  string         `json:"service" jsonschema:"Service name: window, visibility, frame, transform, animation, snap, input, zorder, focus, appearance, message or host"`
	Command  string         `json:"command" jsonschema:"Command within the service, e.g. create, show, setFrame, snapTo"`
	WindowID string         `json:"windowId,omitempty" jsonschema:"Target palette window id. Required by every window-scoped command"`
	Params   map[string]any `json:"params,omitempty" jsonschema:"Command parameters. Geometry is in logical units"`
}

// CommandOutput is the output for the palette_command tool.
type CommandOutput struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// SnapshotInput is the input for the palette_snapshot tool.
type SnapshotInput struct {
	WindowID string `json:"windowId,omitempty" jsonschema:"Only report this window and the bindings it takes part in"`
}

// PingInput is the input for the palette_ping tool.
type PingInput struct{}

// WaitEventInput is the input for the palette_wait_event tool.
type WaitEventInput struct {
	Services  []string `json:"services,omitempty" jsonschema:"Only match events from these services"`
	WindowID  string   `json:"windowId,omitempty" jsonschema:"Only match events for this window"`
	Event     string   `json:"event,omitempty" jsonschema:"Only match events with this name, e.g. snapped or animationComplete"`
	TimeoutMs int      `json:"timeoutMs,omitempty" jsonschema:"How long to wait in milliseconds (default: 5000, max: 60000)"`
}

// WaitEventOutput is the output for the palette_wait_event tool.
type WaitEventOutput struct {
	Matched bool            `json:"matched"`
	Event   *protocol.Event `json:"event,omitempty"`
}
