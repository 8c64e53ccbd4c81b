package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/ipc"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
	"github.com/1broseidon/palettekit/internal/snap"
)

const (
	defaultWaitTimeout = 5 * time.Second
	maxWaitTimeout     = 60 * time.Second
)

func (s *Server) handleCommand(ctx context.Context, _ *mcpsdk.CallToolRequest, args CommandInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	if args.Service == "" || args.Command == "" {
		return nil, CommandOutput{}, fmt.Errorf("service and command are required")
	}
	cmd := protocol.Command{
		Service:  args.Service,
		Command:  args.Command,
		WindowID: args.WindowID,
		Params:   protocol.Params(args.Params),
	}
	res, err := s.daemon.Call(ctx, cmd)
	if err != nil {
		s.log.Warn().Err(err).Str("service", cmd.Service).Str("command", cmd.Command).Msg("daemon call failed")
		return nil, CommandOutput{}, fmt.Errorf("daemon unavailable: %w", err)
	}
	if res.Error != nil {
		s.log.Debug().
			Str("service", cmd.Service).
			Str("command", cmd.Command).
			Str("code", string(res.Error.Code)).
			Msg("command rejected")
		return nil, CommandOutput{}, fmt.Errorf("%s: %s", res.Error.Code, res.Error.Message)
	}
	return nil, CommandOutput{Status: res.Status, Data: res.Data}, nil
}

func (s *Server) handleSnapshot(ctx context.Context, _ *mcpsdk.CallToolRequest, args SnapshotInput) (*mcpsdk.CallToolResult, engine.Snapshot, error) {
	snapshot, err := s.daemon.Snapshot(ctx)
	if err != nil {
		return nil, engine.Snapshot{}, fmt.Errorf("daemon unavailable: %w", err)
	}
	if args.WindowID == "" {
		return nil, *snapshot, nil
	}
	return nil, filterSnapshot(*snapshot, args.WindowID), nil
}

// filterSnapshot keeps one window and the bindings it takes part in.
func filterSnapshot(in engine.Snapshot, id string) engine.Snapshot {
	out := engine.Snapshot{
		Windows:  []registry.Snapshot{},
		Bindings: []snap.Info{},
	}
	for _, w := range in.Windows {
		if w.ID == id {
			out.Windows = append(out.Windows, w)
		}
	}
	for _, b := range in.Bindings {
		if b.FollowerID == id || b.TargetID == id {
			out.Bindings = append(out.Bindings, b)
		}
	}
	if in.Focused == id {
		out.Focused = id
	}
	if in.Dragging == id {
		out.Dragging = id
	}
	return out
}

func (s *Server) handlePing(ctx context.Context, _ *mcpsdk.CallToolRequest, _ PingInput) (*mcpsdk.CallToolResult, ipc.PingData, error) {
	ping, err := s.daemon.Ping(ctx)
	if err != nil {
		return nil, ipc.PingData{}, fmt.Errorf("daemon unavailable: %w", err)
	}
	return nil, *ping, nil
}

func (s *Server) handleWaitEvent(ctx context.Context, _ *mcpsdk.CallToolRequest, args WaitEventInput) (*mcpsdk.CallToolResult, WaitEventOutput, error) {
	timeout := defaultWaitTimeout
	if args.TimeoutMs > 0 {
		timeout = min(time.Duration(args.TimeoutMs)*time.Millisecond, maxWaitTimeout)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var matched *protocol.Event
	filter := &ipc.Filter{Services: args.Services, WindowID: args.WindowID}
	err := s.daemon.Subscribe(ctx, filter, nil, func(e protocol.Event) {
		if matched != nil || (args.Event != "" && e.Name != args.Event) {
			return
		}
		ev := e
		matched = &ev
		cancel()
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, WaitEventOutput{}, fmt.Errorf("subscribe: %w", err)
	}
	return nil, WaitEventOutput{Matched: matched != nil, Event: matched}, nil
}
