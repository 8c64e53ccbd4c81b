// Package input routes global keyboard and pointer hook events to the
// palettes that registered interest in them.
package input

import (
	"sort"
	"sync/atomic"

	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/platform"
)

// Hooks installs and removes the process-wide input hooks.
type Hooks interface {
	InstallKeyHook(hook platform.KeyHook) error
	RemoveKeyHook() error
	InstallPointerHook(hook platform.PointerHook) error
	RemovePointerHook() error
}

// Emitter publishes an input event for windowID.
type Emitter func(event, windowID string, data map[string]any)

// Options wires a Router into its environment.
type Options struct {
	Hooks Hooks
	Emit  Emitter
	// Bounds returns a window's logical frame.
	Bounds func(id string) (geom.Rect, bool)
	// ToLogical converts a physical root position.
	ToLogical func(x, y int) geom.Point
	// Invoke runs fn on the control loop and waits for it, returning false
	// when the decision could not be made in time. Nil runs fn inline.
	Invoke func(fn func()) bool
	// Post schedules fn on the control loop. Nil runs fn inline.
	Post func(fn func())
}

type keyInterest struct {
	all  bool
	keys map[int64]struct{}
}

func (k keyInterest) matches(id int64) bool {
	if k.all {
		return true
	}
	_, ok := k.keys[id]
	return ok
}

// Router tracks per-window input interest. Everything except the hook
// callbacks runs on the control loop.
type Router struct {
	opts Options

	keys    map[string]keyInterest
	pointer map[string]bool
	inside  map[string]bool
	passed  map[uint32]struct{}

	keyHookOn bool
	ptrHookOn bool
}

// NewRouter creates a router with no interest registered.
func NewRouter(opts Options) *Router {
	if opts.Invoke == nil {
		opts.Invoke = func(fn func()) bool { fn(); return true }
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	if opts.Emit == nil {
		opts.Emit = func(string, string, map[string]any) {}
	}
	if opts.ToLogical == nil {
		opts.ToLogical = func(x, y int) geom.Point { return geom.Point{X: float64(x), Y: float64(y)} }
	}
	return &Router{
		opts:    opts,
		keys:    make(map[string]keyInterest),
		pointer: make(map[string]bool),
		inside:  make(map[string]bool),
		passed:  make(map[uint32]struct{}),
	}
}

// CaptureKeyboard registers keyboard interest for id. With all set every key
// is delivered; otherwise only the listed key ids.
func (r *Router) CaptureKeyboard(id string, all bool, keys []int64) error {
	ki := keyInterest{all: all, keys: make(map[int64]struct{}, len(keys))}
	for _, k := range keys {
		ki.keys[k] = struct{}{}
	}
	r.keys[id] = ki
	return r.syncKeyHook()
}

// ReleaseKeyboard drops id's keyboard interest.
func (r *Router) ReleaseKeyboard(id string) error {
	delete(r.keys, id)
	return r.syncKeyHook()
}

// CapturePointer registers pointer interest for id.
func (r *Router) CapturePointer(id string) error {
	r.pointer[id] = true
	return r.syncPointerHook()
}

// ReleasePointer drops id's pointer interest.
func (r *Router) ReleasePointer(id string) error {
	delete(r.pointer, id)
	delete(r.inside, id)
	return r.syncPointerHook()
}

// Remove drops all interest held by id.
func (r *Router) Remove(id string) error {
	kerr := r.ReleaseKeyboard(id)
	perr := r.ReleasePointer(id)
	if kerr != nil {
		return kerr
	}
	return perr
}

// KeyboardCaptured reports whether id has keyboard interest.
func (r *Router) KeyboardCaptured(id string) bool {
	_, ok := r.keys[id]
	return ok
}

// PointerCaptured reports whether id has pointer interest.
func (r *Router) PointerCaptured(id string) bool {
	return r.pointer[id]
}

// HooksActive reports which hooks are installed.
func (r *Router) HooksActive() (key, pointer bool) {
	return r.keyHookOn, r.ptrHookOn
}

func (r *Router) syncKeyHook() error {
	want := len(r.keys) > 0
	switch {
	case want && !r.keyHookOn:
		if err := r.opts.Hooks.InstallKeyHook(r.keyHook); err != nil {
			return err
		}
		r.keyHookOn = true
	case !want && r.keyHookOn:
		r.keyHookOn = false
		r.passed = make(map[uint32]struct{})
		return r.opts.Hooks.RemoveKeyHook()
	}
	return nil
}

func (r *Router) syncPointerHook() error {
	want := len(r.pointer) > 0
	switch {
	case want && !r.ptrHookOn:
		if err := r.opts.Hooks.InstallPointerHook(r.pointerHook); err != nil {
			return err
		}
		r.ptrHookOn = true
	case !want && r.ptrHookOn:
		r.ptrHookOn = false
		return r.opts.Hooks.RemovePointerHook()
	}
	return nil
}

const (
	decisionPending int32 = iota
	decisionRunning
	decisionAbandoned
)

// keyHook runs on the platform's event goroutine. When the loop cannot decide
// in time the key passes through and the queued decision is abandoned, so a
// late run never delivers a key the system already saw.
func (r *Router) keyHook(ev platform.KeyEvent) bool {
	var state atomic.Int32
	result := make(chan bool, 1)
	decide := func() {
		if !state.CompareAndSwap(decisionPending, decisionRunning) {
			return
		}
		result <- r.HandleKey(ev)
	}
	if r.opts.Invoke(decide) {
		return <-result
	}
	if !state.CompareAndSwap(decisionPending, decisionAbandoned) {
		// The loop picked it up just after the deadline.
		return <-result
	}
	r.opts.Post(func() { r.passThrough(ev) })
	return false
}

// passThrough records a key the system received without a decision.
func (r *Router) passThrough(ev platform.KeyEvent) {
	if ev.Down {
		r.passed[ev.Code] = struct{}{}
		return
	}
	delete(r.passed, ev.Code)
}

// pointerHook runs on the platform's event goroutine.
func (r *Router) pointerHook(ev platform.PointerEvent) {
	r.opts.Post(func() { r.HandlePointer(ev) })
}

// HandleKey delivers ev to interested windows and reports whether the key is
// consumed. A key-down that passed through lets its key-up pass through as
// well, whatever the interest is by then.
func (r *Router) HandleKey(ev platform.KeyEvent) bool {
	if !ev.Down {
		if _, ok := r.passed[ev.Code]; ok {
			delete(r.passed, ev.Code)
			return false
		}
	}

	targets := r.keyTargets(ev.KeyID)
	if len(targets) == 0 {
		if ev.Down {
			r.passed[ev.Code] = struct{}{}
		}
		return false
	}
	if ev.Down {
		delete(r.passed, ev.Code)
	}

	name := "keyUp"
	if ev.Down {
		name = "keyDown"
	}
	mods := ev.Modifiers
	if mods == nil {
		mods = []int64{}
	}
	for _, id := range targets {
		r.opts.Emit(name, id, map[string]any{
			"keyId":     ev.KeyID,
			"modifiers": mods,
		})
	}
	return true
}

func (r *Router) keyTargets(keyID int64) []string {
	var out []string
	for id, ki := range r.keys {
		if ki.matches(keyID) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// HandlePointer emits enter/exit transitions on moves and clickOutside on
// button presses outside a capturing window.
func (r *Router) HandlePointer(ev platform.PointerEvent) {
	if len(r.pointer) == 0 {
		return
	}
	p := r.opts.ToLogical(ev.X, ev.Y)
	ids := make([]string, 0, len(r.pointer))
	for id := range r.pointer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		frame, ok := r.opts.Bounds(id)
		if !ok {
			continue
		}
		in := frame.Contains(p)
		data := map[string]any{"x": p.X, "y": p.Y}
		switch ev.Kind {
		case platform.PointerDown:
			if !in {
				r.opts.Emit("clickOutside", id, data)
			}
		case platform.PointerMove:
			if in == r.inside[id] {
				continue
			}
			r.inside[id] = in
			if in {
				r.opts.Emit("pointerEnter", id, data)
			} else {
				r.opts.Emit("pointerExit", id, data)
			}
		}
	}
}
