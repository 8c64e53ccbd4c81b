// Package snap maintains the follower graph of docked palettes, keeps
// followers glued to their targets, and turns drag proximity into bindings.
package snap

import (
	"sort"

	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/protocol"
)

// Host is the window side of the snap engine.
type Host interface {
	Frame(id string) (geom.Rect, bool)
	IsVisible(id string) bool
	// MoveTo applies a new origin. The host is expected to call
	// RepositionFollowers for id afterwards so chains cascade.
	MoveTo(id string, origin geom.Point)
	Hide(id string)
}

// Emitter publishes a snap event for windowID.
type Emitter func(event, windowID string, data map[string]any)

// Defaults used for bindings created by auto-snap and for configs that
// omit a threshold.
type Defaults struct {
	ProximityThreshold float64
	AutoSnapGap        float64
	OnTargetHidden     Policy
	OnTargetDestroyed  Policy
}

// DefaultDefaults mirrors the stock configuration.
func DefaultDefaults() Defaults {
	return Defaults{
		ProximityThreshold: 50,
		AutoSnapGap:        4,
		OnTargetHidden:     HideFollower,
		OnTargetDestroyed:  HideAndDetach,
	}
}

// Engine owns bindings, auto-snap configs and the proximity state. It is
// driven from the control loop only.
type Engine struct {
	host     Host
	emit     Emitter
	defaults Defaults

	bindings  map[string]*Binding
	autoSnap  map[string]AutoSnapConfig
	proximity *Proximity
}

// NewEngine creates an engine.
func NewEngine(host Host, emit Emitter, defaults Defaults) *Engine {
	if emit == nil {
		emit = func(string, string, map[string]any) {}
	}
	return &Engine{
		host:     host,
		emit:     emit,
		defaults: defaults,
		bindings: make(map[string]*Binding),
		autoSnap: make(map[string]AutoSnapConfig),
	}
}

// SetDefaults replaces the defaults, e.g. after a config reload.
func (e *Engine) SetDefaults(d Defaults) {
	e.defaults = d
}

// Defaults returns the active defaults.
func (e *Engine) Defaults() Defaults {
	return e.defaults
}

// Bind validates and installs b, replacing any binding the follower already
// has, then positions the follower.
func (e *Engine) Bind(b Binding) error {
	if b.Follower == "" || b.Target == "" {
		return protocol.InvalidParams("followerId and targetId required")
	}
	if b.Follower == b.Target {
		return protocol.InvalidParams("a window cannot snap to itself")
	}
	if !geom.Compatible(b.FollowerEdge, b.TargetEdge) {
		return protocol.InvalidParams("edges %s and %s do not face each other", b.FollowerEdge, b.TargetEdge)
	}
	if _, ok := e.host.Frame(b.Follower); !ok {
		return protocol.NotFound(b.Follower)
	}
	if _, ok := e.host.Frame(b.Target); !ok {
		return protocol.TargetNotFound(b.Target)
	}
	if e.reaches(b.Target, b.Follower) {
		return protocol.InvalidParams("snapping %s to %s would create a cycle", b.Follower, b.Target)
	}

	binding := b
	e.bindings[b.Follower] = &binding
	e.position(&binding)
	e.emit("snapped", b.Follower, map[string]any{
		"targetId":     b.Target,
		"followerEdge": b.FollowerEdge.String(),
		"targetEdge":   b.TargetEdge.String(),
	})
	return nil
}

// reaches reports whether following the target chain from start arrives at
// id.
func (e *Engine) reaches(start, id string) bool {
	seen := map[string]bool{}
	for cur := start; cur != ""; {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		b, ok := e.bindings[cur]
		if !ok {
			return false
		}
		cur = b.Target
	}
	return false
}

// Detach removes the follower's binding. Absent bindings are a no-op.
func (e *Engine) Detach(follower string) {
	b, ok := e.bindings[follower]
	if !ok {
		return
	}
	delete(e.bindings, follower)
	e.emit("detached", follower, map[string]any{"targetId": b.Target})
}

// ReSnap moves the follower back to its bound position.
func (e *Engine) ReSnap(follower string) error {
	b, ok := e.bindings[follower]
	if !ok {
		return protocol.NotFound(follower)
	}
	if !e.position(b) {
		return protocol.NotFound(follower)
	}
	e.emit("snapped", follower, map[string]any{"targetId": b.Target})
	return nil
}

// Distance returns how far the follower is from its bound position, or 0
// when it has no binding.
func (e *Engine) Distance(follower string) float64 {
	b, ok := e.bindings[follower]
	if !ok {
		return 0
	}
	f, ok := e.host.Frame(follower)
	if !ok {
		return 0
	}
	t, ok := e.host.Frame(b.Target)
	if !ok {
		return 0
	}
	return geom.Distance(f.Origin(), Position(f, t, *b))
}

// Binding returns the follower's binding.
func (e *Engine) Binding(follower string) (Binding, bool) {
	b, ok := e.bindings[follower]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// Followers returns the ids bound to target, sorted.
func (e *Engine) Followers(target string) []string {
	var out []string
	for id, b := range e.bindings {
		if b.Target == target {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Bindings returns every binding sorted by follower.
func (e *Engine) Bindings() []Binding {
	out := make([]Binding, 0, len(e.bindings))
	for _, b := range e.bindings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Follower < out[j].Follower })
	return out
}

// SetAutoSnap installs cfg for id. An empty config removes it.
func (e *Engine) SetAutoSnap(id string, cfg AutoSnapConfig) {
	if cfg.Empty() {
		delete(e.autoSnap, id)
		return
	}
	if cfg.ProximityThreshold <= 0 {
		cfg.ProximityThreshold = e.defaults.ProximityThreshold
	}
	e.autoSnap[id] = cfg
}

// AutoSnap returns the config for id.
func (e *Engine) AutoSnap(id string) (AutoSnapConfig, bool) {
	cfg, ok := e.autoSnap[id]
	return cfg, ok
}

// Proximity returns the current proximity state.
func (e *Engine) Proximity() (Proximity, bool) {
	if e.proximity == nil {
		return Proximity{}, false
	}
	return *e.proximity, true
}

// RepositionFollowers moves every follower of target to its bound position.
// Bindings whose follower no longer exists are dropped.
func (e *Engine) RepositionFollowers(target string) {
	for _, id := range e.Followers(target) {
		b, ok := e.bindings[id]
		if !ok {
			continue
		}
		if !e.position(b) {
			if _, exists := e.host.Frame(id); !exists {
				delete(e.bindings, id)
			}
		}
	}
}

// Realign moves a bound follower back to its bound position without emitting
// an event. It is used when the follower's own size changes.
func (e *Engine) Realign(follower string) {
	if b, ok := e.bindings[follower]; ok {
		e.position(b)
	}
}

func (e *Engine) position(b *Binding) bool {
	f, ok := e.host.Frame(b.Follower)
	if !ok {
		return false
	}
	t, ok := e.host.Frame(b.Target)
	if !ok {
		return false
	}
	p := Position(f, t, *b)
	if p != f.Origin() {
		e.host.MoveTo(b.Follower, p)
	}
	return true
}

// OnWindowHidden applies each follower's target-hidden policy.
func (e *Engine) OnWindowHidden(id string) {
	for _, fid := range e.Followers(id) {
		b := e.bindings[fid]
		switch b.OnTargetHidden {
		case HideFollower:
			e.host.Hide(fid)
		case HideAndDetach:
			e.Detach(fid)
			e.host.Hide(fid)
		}
	}
	e.clearProximityFor(id)
}

// OnWindowShown realigns followers after the target reappears.
func (e *Engine) OnWindowShown(id string) {
	e.RepositionFollowers(id)
}

// OnWindowDestroyed removes every trace of id. Bindings that named id as
// their target are always removed; their destroyed policy decides whether
// the follower is also hidden.
func (e *Engine) OnWindowDestroyed(id string) {
	delete(e.bindings, id)
	delete(e.autoSnap, id)

	for _, fid := range e.Followers(id) {
		policy := e.bindings[fid].OnTargetDestroyed
		e.Detach(fid)
		if policy != Leave {
			e.host.Hide(fid)
		}
	}

	if p := e.proximity; p != nil {
		if p.Dragged == id {
			e.proximity = nil
		} else if p.Target == id {
			e.exitProximity()
		}
	}
}

func (e *Engine) clearProximityFor(target string) {
	if e.proximity != nil && e.proximity.Target == target {
		e.exitProximity()
	}
}

func (e *Engine) exitProximity() {
	p := e.proximity
	e.proximity = nil
	e.emit("proximityExited", p.Dragged, map[string]any{"targetId": p.Target})
}

// DragBegan detaches a dragged follower and resets proximity.
func (e *Engine) DragBegan(id string) {
	e.Detach(id)
	if e.proximity != nil && e.proximity.Dragged == id {
		e.proximity = nil
	}
}

// DragMoved updates proximity for an unbound dragged window. Followers of
// the dragged window are moved by the host's cascade.
func (e *Engine) DragMoved(id string, frame geom.Rect) {
	if _, bound := e.bindings[id]; bound {
		return
	}
	e.checkProximity(id, frame)
}

// DragEnded converts a live proximity into a binding. A target that has
// started following id since the last move is dropped instead.
func (e *Engine) DragEnded(id string, _ geom.Rect) {
	p := e.proximity
	if p == nil || p.Dragged != id {
		return
	}
	if e.reaches(p.Target, id) {
		e.exitProximity()
		return
	}
	e.proximity = nil
	if _, ok := e.host.Frame(p.Target); !ok {
		return
	}
	b := &Binding{
		Follower:          id,
		Target:            p.Target,
		FollowerEdge:      p.DraggedEdge,
		TargetEdge:        p.TargetEdge,
		Alignment:         geom.AlignCenter,
		Gap:               e.defaults.AutoSnapGap,
		OnTargetHidden:    e.defaults.OnTargetHidden,
		OnTargetDestroyed: e.defaults.OnTargetDestroyed,
	}
	e.bindings[id] = b
	e.position(b)
	e.emit("snapped", id, map[string]any{
		"targetId":     b.Target,
		"followerEdge": b.FollowerEdge.String(),
		"targetEdge":   b.TargetEdge.String(),
	})
}

func (e *Engine) checkProximity(id string, frame geom.Rect) {
	cfg, ok := e.autoSnap[id]
	if !ok || len(cfg.CanSnapFrom) == 0 {
		if e.proximity != nil && e.proximity.Dragged == id {
			e.exitProximity()
		}
		return
	}
	threshold := cfg.ProximityThreshold
	if threshold <= 0 {
		threshold = e.defaults.ProximityThreshold
	}

	candidates := make([]string, 0, len(e.autoSnap))
	for tid := range e.autoSnap {
		candidates = append(candidates, tid)
	}
	sort.Strings(candidates)

	var best *Proximity
	for _, tid := range candidates {
		tcfg := e.autoSnap[tid]
		if tid == id || len(tcfg.AcceptsSnapOn) == 0 || !cfg.allowsTarget(tid) {
			continue
		}
		if e.reaches(tid, id) {
			continue
		}
		if !e.host.IsVisible(tid) {
			continue
		}
		tframe, ok := e.host.Frame(tid)
		if !ok {
			continue
		}
		for _, de := range cfg.CanSnapFrom {
			te := de.Opposite()
			if !tcfg.accepts(te) {
				continue
			}
			d, ok := EdgeDistance(frame, de, tframe, te)
			if !ok || d >= threshold {
				continue
			}
			if best == nil || d < best.Distance {
				best = &Proximity{Dragged: id, Target: tid, DraggedEdge: de, TargetEdge: te, Distance: d}
			}
		}
	}

	cur := e.proximity
	switch {
	case best == nil:
		if cur != nil && cur.Dragged == id {
			e.exitProximity()
		}
	case cur != nil && cur.Dragged == id && cur.sameCandidate(best):
		e.proximity = best
		e.emit("proximityUpdated", id, map[string]any{
			"targetId": best.Target,
			"distance": best.Distance,
		})
	default:
		if cur != nil {
			e.exitProximity()
		}
		e.proximity = best
		e.emit("proximityEntered", id, map[string]any{
			"targetId":    best.Target,
			"draggedEdge": best.DraggedEdge.String(),
			"targetEdge":  best.TargetEdge.String(),
			"distance":    best.Distance,
		})
	}
}

// Prune drops bindings and configs that reference windows for which exists
// returns false.
func (e *Engine) Prune(exists func(id string) bool) int {
	removed := 0
	for id, b := range e.bindings {
		if !exists(id) || !exists(b.Target) {
			delete(e.bindings, id)
			removed++
		}
	}
	for id := range e.autoSnap {
		if !exists(id) {
			delete(e.autoSnap, id)
		}
	}
	if p := e.proximity; p != nil && (!exists(p.Dragged) || !exists(p.Target)) {
		e.proximity = nil
	}
	return removed
}
