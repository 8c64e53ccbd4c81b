// Package mcp exposes the palette daemon's command surface to MCP clients
// over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/ipc"
	"github.com/1broseidon/palettekit/internal/protocol"
)

const (
	ServerName    = "palettekit"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools forward to.
type Daemon interface {
	Call(ctx context.Context, cmd protocol.Command) (protocol.Result, error)
	Snapshot(ctx context.Context) (*engine.Snapshot, error)
	Ping(ctx context.Context) (*ipc.PingData, error)
	Subscribe(ctx context.Context, filter *ipc.Filter, ready func(id string), fn func(protocol.Event)) error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for palette control.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	log       zerolog.Logger
}

// NewServer creates a server forwarding every tool call to daemon.
func NewServer(daemon Daemon, log zerolog.Logger) *Server {
	s := &Server{
		daemon: daemon,
		log:    log.With().Str("component", "mcp").Logger(),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session on t.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "palette_command",
		Description: "Execute one palettekit command. Commands are grouped by service (window, visibility, frame, transform, animation, snap, input, zorder, focus, appearance, message, host). Window-scoped commands need windowId. Geometry is in logical units. Failures report an error code such as NOT_FOUND or INVALID_PARAMS.",
	}, s.handleCommand)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "palette_snapshot",
		Description: "Return every palette window (bottom to top) with its state, frame, opacity and level, plus active snap bindings, the focused window and the window being dragged.",
	}, s.handleSnapshot)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "palette_ping",
		Description: "Check that the palettekit daemon is running. Returns its uptime and window count.",
	}, s.handlePing)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "palette_wait_event",
		Description: "Wait for the next daemon event matching the given services, window and event name. Useful after starting an animation or drag to observe its completion.",
	}, s.handleWaitEvent)
}
