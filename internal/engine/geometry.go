package engine

import (
	"github.com/1broseidon/palettekit/internal/anim"
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
)

// scaleFor returns the scale of the display holding the centre of the
// logical frame r, so a frame that crosses displays converts with the
// destination's scale.
func (e *Engine) scaleFor(r geom.Rect) float64 {
	c := r.Center()
	return e.backend.LogicalScaleFactorAt(c.X, c.Y)
}

// pushBounds sends the window's logical frame to its surface.
func (e *Engine) pushBounds(w *registry.Window) {
	phys := platform.ToPhysical(w.Frame, e.scaleFor(w.Frame))
	e.warn(e.backend.SetBounds(w.Surface, phys), "setBounds", w.ID)
}

func (e *Engine) pushContentSize(w *registry.Window) {
	phys := platform.ToPhysical(w.Frame, e.scaleFor(w.Frame))
	e.warn(e.backend.ResizeContent(w.Surface, phys.Width, phys.Height), "resizeContent", w.ID)
}

// setOrigin moves w without notifying anyone but its followers.
func (e *Engine) setOrigin(w *registry.Window, p geom.Point) {
	w.Frame = w.Frame.Moved(p)
	e.pushBounds(w)
	e.snap.RepositionFollowers(w.ID)
}

// moveTo moves w, echoes the change and cascades to followers.
func (e *Engine) moveTo(w *registry.Window, p geom.Point) {
	e.setOrigin(w, p)
	e.emitMoved(w)
}

// setSize resizes w within its limits without emitting. Followers of w and
// w's own binding are realigned.
func (e *Engine) setSize(w *registry.Window, s geom.Size) geom.Size {
	applied := w.Resize(s)
	e.pushBounds(w)
	e.pushContentSize(w)
	e.snap.Realign(w.ID)
	e.snap.RepositionFollowers(w.ID)
	return applied
}

func (e *Engine) resize(w *registry.Window, s geom.Size) {
	e.setSize(w, s)
	e.emitResized(w)
}

func (e *Engine) emitMoved(w *registry.Window) {
	e.emit(protocol.ServiceFrame, "moved", w.ID, map[string]any{
		"x": w.Frame.X,
		"y": w.Frame.Y,
	})
}

func (e *Engine) emitResized(w *registry.Window) {
	e.emit(protocol.ServiceFrame, "resized", w.ID, map[string]any{
		"width":  w.Frame.Width,
		"height": w.Frame.Height,
	})
}

// applyOpacity pushes w's opacity unless the window is still waiting for
// its reveal, in which case the surface stays transparent.
func (e *Engine) applyOpacity(w *registry.Window) {
	if w.State == registry.StatePendingReveal {
		return
	}
	e.warn(e.backend.SetOpacity(w.Surface, w.Opacity), "setOpacity", w.ID)
}

// snapHost exposes windows to the snap engine.
type snapHost struct{ e *Engine }

func (h snapHost) Frame(id string) (geom.Rect, bool) { return h.e.frameOf(id) }

func (h snapHost) IsVisible(id string) bool {
	w, ok := h.e.windows.Get(id)
	return ok && w.State == registry.StateVisible
}

func (h snapHost) MoveTo(id string, origin geom.Point) {
	if w, ok := h.e.windows.Get(id); ok {
		h.e.moveTo(w, origin)
	}
}

func (h snapHost) Hide(id string) {
	if w, ok := h.e.windows.Get(id); ok {
		h.e.hide(w)
	}
}

// dragHost exposes windows and the pointer to the drag coordinator.
type dragHost struct{ e *Engine }

func (h dragHost) Frame(id string) (geom.Rect, bool) { return h.e.frameOf(id) }

func (h dragHost) Draggable(id string) bool {
	w, ok := h.e.windows.Get(id)
	return ok && w.Draggable && w.State.OnScreen()
}

func (h dragHost) MoveTo(id string, origin geom.Point) {
	if w, ok := h.e.windows.Get(id); ok {
		h.e.moveTo(w, origin)
	}
}

func (h dragHost) Capture(id string) (geom.Point, error) {
	w, err := h.e.windows.Lookup(id)
	if err != nil {
		return geom.Point{}, err
	}
	sched := h.e.sched
	hook := func(ev platform.PointerEvent) {
		sched.Post(func() { h.e.dragPointer(ev) })
	}
	if err := h.e.backend.CapturePointer(w.Surface, hook); err != nil {
		return geom.Point{}, err
	}
	x, y, err := h.e.backend.CursorPosition()
	if err != nil {
		h.e.warn(h.e.backend.ReleasePointer(), "releasePointer", id)
		return geom.Point{}, err
	}
	return h.e.pointToLogical(x, y), nil
}

func (h dragHost) Release() {
	h.e.warn(h.e.backend.ReleasePointer(), "releasePointer", "")
}

func (e *Engine) dragPointer(ev platform.PointerEvent) {
	switch ev.Kind {
	case platform.PointerMove:
		e.drag.Move(e.pointToLogical(ev.X, ev.Y))
	case platform.PointerUp, platform.PointerCaptureLost:
		e.drag.End()
	}
}

// animTarget exposes animatable window properties.
type animTarget struct{ e *Engine }

func (t animTarget) Value(id string, p anim.Property) (float64, bool) {
	w, ok := t.e.windows.Get(id)
	if !ok {
		return 0, false
	}
	switch p {
	case anim.PropX:
		return w.Frame.X, true
	case anim.PropY:
		return w.Frame.Y, true
	case anim.PropWidth:
		return w.Frame.Width, true
	case anim.PropHeight:
		return w.Frame.Height, true
	case anim.PropOpacity:
		return w.Opacity, true
	case anim.PropScaleX:
		return w.Transform.ScaleX, true
	case anim.PropScaleY:
		return w.Transform.ScaleY, true
	case anim.PropRotation:
		return w.Transform.Rotation, true
	case anim.PropCornerRadius:
		return w.CornerRadius, true
	}
	return 0, false
}

func (t animTarget) Apply(id string, p anim.Property, v float64) {
	e := t.e
	w, ok := e.windows.Get(id)
	if !ok {
		return
	}
	switch p {
	case anim.PropX:
		e.setOrigin(w, geom.Point{X: v, Y: w.Frame.Y})
	case anim.PropY:
		e.setOrigin(w, geom.Point{X: w.Frame.X, Y: v})
	case anim.PropWidth:
		e.setSize(w, geom.Size{Width: v, Height: w.Frame.Height})
	case anim.PropHeight:
		e.setSize(w, geom.Size{Width: w.Frame.Width, Height: v})
	case anim.PropOpacity:
		w.SetOpacity(v)
		e.applyOpacity(w)
	case anim.PropScaleX:
		w.Transform.ScaleX = v
	case anim.PropScaleY:
		w.Transform.ScaleY = v
	case anim.PropRotation:
		w.Transform.Rotation = v
	case anim.PropCornerRadius:
		w.CornerRadius = v
	}
}

func (e *Engine) animationComplete(id string, p anim.Property) {
	w, ok := e.windows.Get(id)
	if !ok {
		return
	}
	switch p {
	case anim.PropX, anim.PropY:
		if !e.anim.IsAnimatingProperty(id, anim.PropX) && !e.anim.IsAnimatingProperty(id, anim.PropY) {
			e.emitMoved(w)
		}
	case anim.PropWidth, anim.PropHeight:
		if !e.anim.IsAnimatingProperty(id, anim.PropWidth) && !e.anim.IsAnimatingProperty(id, anim.PropHeight) {
			e.emitResized(w)
		}
	}
	e.emit(protocol.ServiceAnimation, "complete", id, map[string]any{"property": string(p)})
}
