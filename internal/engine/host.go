package engine

import (
	"sort"

	"github.com/1broseidon/palettekit/internal/anim"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
	"github.com/1broseidon/palettekit/internal/snap"
)

func (e *Engine) registerAppearance() {
	e.register(protocol.ServiceAppearance, "setCornerRadius", e.cmdSetCornerRadius)
	e.register(protocol.ServiceAppearance, "getCornerRadius", e.cmdGetCornerRadius)
}

func (e *Engine) cmdSetCornerRadius(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	radius := p.RequireFloat("radius")
	m := e.readMotion(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := m.timing.err; err != nil {
		return nil, err
	}
	if radius < 0 {
		radius = 0
	}
	if m.animate {
		return nil, e.animateTo(w, m, map[anim.Property]float64{anim.PropCornerRadius: radius})
	}
	e.anim.Stop(w.ID, anim.PropCornerRadius)
	w.CornerRadius = radius
	e.emit(protocol.ServiceAppearance, "cornerRadiusChanged", w.ID, map[string]any{"radius": radius})
	return map[string]any{"radius": radius}, nil
}

func (e *Engine) cmdGetCornerRadius(cmd protocol.Command) (any, error) {
	var radius float64
	if w, ok := e.peek(cmd); ok {
		radius = w.CornerRadius
	}
	return map[string]any{"radius": radius}, nil
}

func (e *Engine) registerMessage() {
	e.register(protocol.ServiceMessage, "send", e.cmdSendMessage)
}

// cmdSendMessage relays an opaque payload to the window's content as an
// event. The engine never inspects it.
func (e *Engine) cmdSendMessage(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(cmd.Params))
	for k, v := range cmd.Params {
		data[k] = v
	}
	e.emit(protocol.ServiceMessage, "received", w.ID, data)
	return nil, nil
}

func (e *Engine) registerHost() {
	e.register(protocol.ServiceHost, "ping", e.cmdPing)
	e.register(protocol.ServiceHost, "getProtocolVersion", e.cmdGetProtocolVersion)
	e.register(protocol.ServiceHost, "getServiceVersion", e.cmdGetServiceVersion)
	e.register(protocol.ServiceHost, "getCapabilities", e.cmdGetCapabilities)
	e.register(protocol.ServiceHost, "getSnapshot", e.cmdGetSnapshot)
}

func (e *Engine) cmdPing(protocol.Command) (any, error) {
	return map[string]any{
		"pong":     true,
		"uptimeMs": e.clock.Now().Sub(e.started).Milliseconds(),
		"windows":  e.windows.Len(),
	}, nil
}

func (e *Engine) cmdGetProtocolVersion(protocol.Command) (any, error) {
	return map[string]any{"version": protocol.Version}, nil
}

func (e *Engine) cmdGetServiceVersion(cmd protocol.Command) (any, error) {
	p := cmd.Params.Reader()
	svc := p.RequireString("service")
	if err := p.Err(); err != nil {
		return nil, err
	}
	if _, ok := e.services[svc]; !ok {
		return nil, protocol.InvalidParams("unknown service %q", svc)
	}
	return map[string]any{"service": svc, "version": protocol.Version}, nil
}

func (e *Engine) cmdGetCapabilities(protocol.Command) (any, error) {
	services := make([]string, 0, len(e.services))
	for svc := range e.services {
		services = append(services, svc)
	}
	sort.Strings(services)
	return map[string]any{
		"platform": e.platform,
		"version":  protocol.Version,
		"services": services,
		"features": map[string]bool{
			"snap":          true,
			"autoSnap":      true,
			"animation":     true,
			"drag":          true,
			"keyboardHooks": true,
			"pointerHooks":  true,
			"passthrough":   true,
			"transform":     true,
			"blur":          false,
			"shadow":        false,
		},
	}, nil
}

// Snapshot is the full engine state as reported by host/getSnapshot.
type Snapshot struct {
	Windows  []registry.Snapshot `json:"windows"`
	Bindings []snap.Info         `json:"bindings"`
	Focused  string              `json:"focused,omitempty"`
	Dragging string              `json:"dragging,omitempty"`
}

// Snapshot copies the engine state, windows bottom to top.
func (e *Engine) Snapshot() Snapshot {
	stack := e.windows.Stack()
	out := Snapshot{
		Windows:  make([]registry.Snapshot, 0, len(stack)),
		Bindings: []snap.Info{},
		Focused:  e.focused,
	}
	for i, w := range stack {
		s := w.Snapshot()
		s.ZIndex = i
		out.Windows = append(out.Windows, s)
	}
	for _, b := range e.snap.Bindings() {
		out.Bindings = append(out.Bindings, b.Info())
	}
	if id, ok := e.drag.Active(); ok {
		out.Dragging = id
	}
	return out
}

func (e *Engine) cmdGetSnapshot(protocol.Command) (any, error) {
	return e.Snapshot(), nil
}

func (e *Engine) snapshotOf(w *registry.Window) registry.Snapshot {
	s := w.Snapshot()
	s.ZIndex = e.windows.Index(w.ID)
	return s
}
