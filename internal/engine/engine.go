// Package engine executes palette commands against the registry and the
// platform backend. An Engine is owned by one control loop goroutine; every
// method except those on Loop and Runner must be called from it.
package engine

import (
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/palettekit/internal/anim"
	"github.com/1broseidon/palettekit/internal/clock"
	"github.com/1broseidon/palettekit/internal/drag"
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/input"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
	"github.com/1broseidon/palettekit/internal/snap"
)

// Scheduler marshals work from foreign goroutines onto the control loop.
type Scheduler interface {
	// Post queues fn without waiting.
	Post(fn func())
	// Invoke runs fn and waits for it, returning false if fn could not run
	// within the scheduler's deadline.
	Invoke(fn func()) bool
}

type inlineScheduler struct{}

func (inlineScheduler) Post(fn func())        { fn() }
func (inlineScheduler) Invoke(fn func()) bool { fn(); return true }

// WindowDefaults seed windows created without explicit values.
type WindowDefaults struct {
	Width       float64
	Height      float64
	Opacity     float64
	Draggable   bool
	FocusPolicy registry.FocusPolicy
}

// Settings are the tunables of an Engine.
type Settings struct {
	RevealTimeout     time.Duration
	AnimationDuration time.Duration
	Window            WindowDefaults
	Snap              snap.Defaults
}

// DefaultSettings returns the stock tunables.
func DefaultSettings() Settings {
	return Settings{
		RevealTimeout:     50 * time.Millisecond,
		AnimationDuration: 200 * time.Millisecond,
		Window: WindowDefaults{
			Width:       300,
			Height:      200,
			Opacity:     1,
			Draggable:   true,
			FocusPolicy: registry.FocusOnClick,
		},
		Snap: snap.DefaultDefaults(),
	}
}

// Preset is a named bundle of creation defaults.
type Preset struct {
	Width       float64
	Height      float64
	Limits      geom.Limits
	Opacity     *float64
	Draggable   *bool
	KeepAlive   bool
	FocusPolicy *registry.FocusPolicy
	Level       *platform.Level
	AutoSnap    *snap.AutoSnapConfig
}

// Options configure New.
type Options struct {
	Backend   platform.Backend
	Clock     clock.Clock
	Ticker    clock.Ticker
	Sink      protocol.Sink
	Scheduler Scheduler
	Logger    zerolog.Logger
	Settings  Settings
	Presets   map[string]Preset
	// Platform names the backend in host/getCapabilities.
	Platform string
}

type handler func(cmd protocol.Command) (any, error)

// Engine is the palette window-coordination engine.
type Engine struct {
	backend  platform.Backend
	clock    clock.Clock
	sink     protocol.Sink
	sched    Scheduler
	log      zerolog.Logger
	settings Settings
	presets  map[string]Preset
	platform string
	started  time.Time

	windows *registry.Registry
	anim    *anim.Engine
	drag    *drag.Coordinator
	snap    *snap.Engine
	input   *input.Router

	revealGen map[string]uint64
	reveals   map[string]clock.Timer
	focused   string

	services map[string]map[string]handler
}

// New wires an Engine and its components.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Sink == nil {
		opts.Sink = protocol.Discard
	}
	if opts.Scheduler == nil {
		opts.Scheduler = inlineScheduler{}
	}
	if opts.Ticker == nil {
		opts.Ticker = clock.NewIntervalTicker(16*time.Millisecond, opts.Scheduler.Post)
	}
	if opts.Platform == "" {
		opts.Platform = "headless"
	}

	e := &Engine{
		backend:   opts.Backend,
		clock:     opts.Clock,
		sink:      opts.Sink,
		sched:     opts.Scheduler,
		log:       opts.Logger.With().Str("component", "engine").Logger(),
		settings:  opts.Settings,
		presets:   opts.Presets,
		platform:  opts.Platform,
		started:   opts.Clock.Now(),
		windows:   registry.New(),
		revealGen: make(map[string]uint64),
		reveals:   make(map[string]clock.Timer),
	}
	if e.presets == nil {
		e.presets = map[string]Preset{}
	}

	e.anim = anim.NewEngine(opts.Clock, opts.Ticker, animTarget{e}, e.animationComplete)
	e.snap = snap.NewEngine(snapHost{e}, e.emitter(protocol.ServiceSnap), opts.Settings.Snap)
	e.drag = drag.New(dragHost{e}, e.snap)
	e.input = input.NewRouter(input.Options{
		Hooks:     opts.Backend,
		Emit:      e.emitter(protocol.ServiceInput),
		Bounds:    e.frameOf,
		ToLogical: e.pointToLogical,
		Invoke:    e.sched.Invoke,
		Post:      e.sched.Post,
	})
	e.registerServices()
	return e
}

// Reconfigure swaps tunables and presets, e.g. after a config reload.
// Existing windows keep their state.
func (e *Engine) Reconfigure(settings Settings, presets map[string]Preset) {
	e.settings = settings
	if presets == nil {
		presets = map[string]Preset{}
	}
	e.presets = presets
	e.snap.SetDefaults(settings.Snap)
}

// Execute runs one command to completion and returns its result. Panics are
// converted to INTERNAL errors.
func (e *Engine) Execute(cmd protocol.Command) (res protocol.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("command", cmd.String()).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("command panicked")
			res = protocol.Fail(protocol.Internal("%v", r))
			res.ID = cmd.ID
		}
	}()

	res = e.execute(cmd)
	res.ID = cmd.ID
	if res.Error != nil {
		e.log.Debug().Str("command", cmd.String()).Str("code", string(res.Error.Code)).Msg(res.Error.Message)
	} else {
		e.log.Trace().Str("command", cmd.String()).Msg("ok")
	}
	return res
}

func (e *Engine) execute(cmd protocol.Command) protocol.Result {
	commands, ok := e.services[cmd.Service]
	if !ok {
		return protocol.Fail(protocol.UnknownCommand(cmd.Service, cmd.Command))
	}
	h, ok := commands[cmd.Command]
	if !ok {
		return protocol.Fail(protocol.UnknownCommand(cmd.Service, cmd.Command))
	}
	if cmd.Params == nil {
		cmd.Params = protocol.Params{}
	}
	data, err := h(cmd)
	if err != nil {
		return protocol.Fail(err)
	}
	return protocol.OK(data)
}

func (e *Engine) register(service, command string, h handler) {
	if e.services == nil {
		e.services = make(map[string]map[string]handler)
	}
	if e.services[service] == nil {
		e.services[service] = make(map[string]handler)
	}
	e.services[service][command] = h
}

func (e *Engine) registerServices() {
	e.registerWindow()
	e.registerVisibility()
	e.registerFrame()
	e.registerTransform()
	e.registerAnimation()
	e.registerSnap()
	e.registerInput()
	e.registerZOrder()
	e.registerFocus()
	e.registerAppearance()
	e.registerMessage()
	e.registerHost()
}

// Services lists the registered services and their commands.
func (e *Engine) Services() map[string][]string {
	out := make(map[string][]string, len(e.services))
	for svc, cmds := range e.services {
		names := make([]string, 0, len(cmds))
		for name := range cmds {
			names = append(names, name)
		}
		sort.Strings(names)
		out[svc] = names
	}
	return out
}

func (e *Engine) emit(service, name, windowID string, data map[string]any) {
	e.sink.Emit(protocol.Event{
		Service:   service,
		Name:      name,
		WindowID:  windowID,
		Data:      data,
		Timestamp: e.clock.Now(),
	})
}

func (e *Engine) emitter(service string) func(name, windowID string, data map[string]any) {
	return func(name, windowID string, data map[string]any) {
		e.emit(service, name, windowID, data)
	}
}

// lookup resolves the command's window, failing with MISSING_ID or
// NOT_FOUND.
func (e *Engine) lookup(cmd protocol.Command) (*registry.Window, error) {
	return e.windows.Lookup(cmd.WindowID)
}

// peek resolves the command's window for read-only and idempotent
// commands.
func (e *Engine) peek(cmd protocol.Command) (*registry.Window, bool) {
	if cmd.WindowID == "" {
		return nil, false
	}
	return e.windows.Get(cmd.WindowID)
}

func (e *Engine) frameOf(id string) (geom.Rect, bool) {
	w, ok := e.windows.Get(id)
	if !ok {
		return geom.Rect{}, false
	}
	return w.Frame, true
}

func (e *Engine) pointToLogical(x, y int) geom.Point {
	return platform.PointToLogical(x, y, e.backend.ScaleFactorAt(x, y))
}

// warn logs a platform failure. In-memory state stays authoritative.
func (e *Engine) warn(err error, op, id string) {
	if err == nil {
		return
	}
	e.log.Warn().Err(err).Str("op", op).Str("window", id).Msg("platform call failed")
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	if protocol.CodeOf(err) == protocol.CodeInvalidParams {
		return err
	}
	return protocol.InvalidParams("%v", err)
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

func describe(w *registry.Window) string {
	return fmt.Sprintf("%s(%s)", w.ID, w.State)
}
