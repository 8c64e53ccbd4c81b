package ipc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/palettekit/internal/clock"
	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
)

type fixture struct {
	client  *Client
	server  *Server
	backend *platform.MemoryBackend
	reloads atomic.Int32
}

// shortSocket keeps the path under the unix socket length limit.
func shortSocket(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "pk")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	loop := engine.NewLoop(0, 0, zerolog.Nop())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	f := &fixture{backend: platform.NewMemoryBackend()}
	bus := NewBus()
	eng := engine.New(engine.Options{
		Backend:   f.backend,
		Ticker:    &clock.ManualTicker{},
		Sink:      bus,
		Scheduler: loop,
		Logger:    zerolog.Nop(),
		Settings:  engine.DefaultSettings(),
	})
	runner := engine.NewRunner(eng, loop)

	path := shortSocket(t)
	f.server = NewServer(ServerOptions{
		SocketPath: path,
		Executor:   runner,
		Bus:        bus,
		Reload: func(context.Context) error {
			f.reloads.Add(1)
			return nil
		},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, f.server.Listen())

	served := make(chan error, 1)
	go func() { served <- f.server.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
		<-loopDone
	})

	f.client = NewClient(path).WithTimeout(2 * time.Second)
	return f
}

func TestClient_CallRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.client.Call(ctx, protocol.Command{
		ID:       "create-1",
		Service:  protocol.ServiceWindow,
		Command:  "create",
		WindowID: "palette",
		Params:   protocol.Params{"x": 10, "y": 20, "width": 320, "height": 240},
	})
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Equal(t, "create-1", res.ID)

	snap, err := f.client.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Windows, 1)
	assert.Equal(t, "palette", snap.Windows[0].ID)
	assert.Equal(t, 320.0, snap.Windows[0].Frame.Width)

	ping, err := f.client.Ping(ctx)
	require.NoError(t, err)
	assert.True(t, ping.Pong)
	assert.Equal(t, 1, ping.Windows)
}

func TestClient_CommandErrorsAreProtocolErrors(t *testing.T) {
	f := newFixture(t)

	err := f.client.Do(context.Background(), protocol.Command{
		Service:  protocol.ServiceVisibility,
		Command:  "show",
		WindowID: "ghost",
	}, nil)
	var perr *protocol.Error
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, protocol.CodeNotFound, perr.Code)

	res, err := f.client.Call(context.Background(), protocol.Command{Service: "nope", Command: "x"})
	require.NoError(t, err)
	assert.Equal(t, protocol.CodeUnknownCommand, protocol.CodeOf(res.Err()))
}

func TestClient_SubscribeReceivesFilteredEvents(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	events := make(chan protocol.Event, 16)
	done := make(chan error, 1)
	go func() {
		done <- f.client.Subscribe(ctx, &Filter{Services: []string{protocol.ServiceWindow}},
			func(string) { close(ready) },
			func(e protocol.Event) { events <- e })
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not acknowledged")
	}
	require.Eventually(t, func() bool { return f.server.Bus().Len() == 1 }, time.Second, 10*time.Millisecond)

	for _, cmd := range []protocol.Command{
		{Service: protocol.ServiceWindow, Command: "create", WindowID: "a"},
		{Service: protocol.ServiceFrame, Command: "setPosition", WindowID: "a", Params: protocol.Params{"x": 5, "y": 5}},
		{Service: protocol.ServiceWindow, Command: "destroy", WindowID: "a"},
	} {
		res, err := f.client.Call(ctx, cmd)
		require.NoError(t, err)
		require.NoError(t, res.Err())
	}

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, e.Service+"/"+e.Name+":"+e.WindowID)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []string{"window/created:a", "window/destroyed:a"}, got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
	require.Eventually(t, func() bool { return f.server.Bus().Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestClient_Reload(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.client.Reload(context.Background()))
	assert.Equal(t, int32(1), f.reloads.Load())
}

func TestServer_RejectsMalformedLinesAndKeepsConnection(t *testing.T) {
	f := newFixture(t)
	conn, err := net.Dial("unix", f.server.opts.SocketPath)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)
	_, err = conn.Write([]byte(`{"id":"p","command":{"service":"host","command":"ping"}}` + "\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	first, err := readResponse(reader)
	require.NoError(t, err)
	assert.Contains(t, first.Error, "Invalid request")

	second, err := readResponse(reader)
	require.NoError(t, err)
	assert.Equal(t, "p", second.ID)
	require.NotNil(t, second.Result)
	assert.Equal(t, protocol.StatusOK, second.Result.Status)
}

func TestServer_ListenRefusesLiveSocket(t *testing.T) {
	f := newFixture(t)
	other := NewServer(ServerOptions{SocketPath: f.server.opts.SocketPath, Logger: zerolog.Nop()})
	err := other.Listen()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another daemon")
}
