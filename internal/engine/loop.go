package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/palettekit/internal/protocol"
)

// ErrLoopStopped is returned by Call once the loop has exited.
var ErrLoopStopped = errors.New("control loop stopped")

// Loop serializes all engine work onto the goroutine running Run.
type Loop struct {
	queue         chan func()
	done          chan struct{}
	invokeTimeout time.Duration
	log           zerolog.Logger
}

// NewLoop creates a loop. invokeTimeout bounds how long Invoke waits, which
// is how long a global key hook may hold a key before it passes through.
func NewLoop(buffer int, invokeTimeout time.Duration, log zerolog.Logger) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	if invokeTimeout <= 0 {
		invokeTimeout = 8 * time.Millisecond
	}
	return &Loop{
		queue:         make(chan func(), buffer),
		done:          make(chan struct{}),
		invokeTimeout: invokeTimeout,
		log:           log.With().Str("component", "loop").Logger(),
	}
}

// Run executes queued work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.log.Debug().Msg("control loop started")
	for {
		select {
		case <-ctx.Done():
			l.log.Debug().Msg("control loop stopped")
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("control loop task panicked")
		}
	}()
	fn()
}

// Post queues fn. Work posted after the loop stopped is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Invoke runs fn on the loop and waits at most the invoke timeout for it to
// finish. On timeout fn may still run later.
func (l *Loop) Invoke(fn func()) bool {
	finished := make(chan struct{})
	timer := time.NewTimer(l.invokeTimeout)
	defer timer.Stop()

	select {
	case l.queue <- func() { fn(); close(finished) }:
	case <-l.done:
		return false
	case <-timer.C:
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	case <-timer.C:
		return false
	}
}

// Call runs fn on the loop and waits for it, honoring ctx.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case l.queue <- func() { fn(); close(finished) }:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runner executes commands from any goroutine by hopping onto the loop.
type Runner struct {
	engine *Engine
	loop   *Loop
}

// NewRunner pairs an engine with the loop that owns it.
func NewRunner(e *Engine, l *Loop) *Runner {
	return &Runner{engine: e, loop: l}
}

// Execute runs cmd on the loop and returns its result.
func (r *Runner) Execute(ctx context.Context, cmd protocol.Command) protocol.Result {
	var res protocol.Result
	if err := r.loop.Call(ctx, func() { res = r.engine.Execute(cmd) }); err != nil {
		res = protocol.Fail(protocol.Internal("%v", err))
		res.ID = cmd.ID
	}
	return res
}

// Snapshot copies the engine state on the loop.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.loop.Call(ctx, func() { snap = r.engine.Snapshot() })
	return snap, err
}

// Do runs fn against the engine on the loop.
func (r *Runner) Do(ctx context.Context, fn func(e *Engine)) error {
	return r.loop.Call(ctx, func() { fn(r.engine) })
}
