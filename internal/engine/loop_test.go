package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/palettekit/internal/clock"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
)

func TestRunnerExecutesOnLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := NewLoop(16, 50*time.Millisecond, zerolog.Nop())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	e := New(Options{
		Backend:   platform.NewMemoryBackend(),
		Ticker:    &clock.ManualTicker{},
		Scheduler: loop,
		Logger:    zerolog.Nop(),
		Settings:  DefaultSettings(),
	})
	r := NewRunner(e, loop)

	res := r.Execute(ctx, protocol.Command{ID: "1", Service: "window", Command: "create", WindowID: "a"})
	require.Equal(t, protocol.StatusOK, res.Status, "%v", res.Error)
	assert.Equal(t, "1", res.ID)

	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Windows, 1)

	cancel()
	require.NoError(t, <-done)

	res = r.Execute(context.Background(), protocol.Command{ID: "2", Service: "host", Command: "ping"})
	assert.Equal(t, protocol.StatusError, res.Status)
	assert.Equal(t, "2", res.ID)
}

func TestInvokeTimesOutWhenLoopIsBusy(t *testing.T) {
	loop := NewLoop(4, 5*time.Millisecond, zerolog.Nop())
	var ran atomic.Bool
	assert.False(t, loop.Invoke(func() { ran.Store(true) }))
	assert.False(t, ran.Load())
}

func TestLoopSurvivesPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := NewLoop(4, time.Second, zerolog.Nop())
	go func() { _ = loop.Run(ctx) }()

	loop.Post(func() { panic("boom") })
	assert.True(t, loop.Invoke(func() {}))
}

func TestCallHonorsContext(t *testing.T) {
	loop := NewLoop(1, time.Second, zerolog.Nop())
	loop.Post(func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := loop.Call(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
