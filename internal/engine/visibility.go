package engine

import (
	"github.com/1broseidon/palettekit/internal/anim"
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
)

func (e *Engine) registerVisibility() {
	e.register(protocol.ServiceVisibility, "show", e.cmdShow)
	e.register(protocol.ServiceVisibility, "hide", e.cmdHide)
	e.register(protocol.ServiceVisibility, "reveal", e.cmdReveal)
	e.register(protocol.ServiceVisibility, "setOpacity", e.cmdSetOpacity)
	e.register(protocol.ServiceVisibility, "getOpacity", e.cmdGetOpacity)
	e.register(protocol.ServiceVisibility, "isVisible", e.cmdIsVisible)
}

// cmdShow maps the surface fully transparent and asks the content for its
// size. The window becomes visible on reveal or when the reveal timer
// fires, whichever comes first.
func (e *Engine) cmdShow(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	focus := p.Bool("focus", false)
	if err := p.Err(); err != nil {
		return nil, err
	}

	switch w.State {
	case registry.StatePendingReveal:
		w.FocusOnReveal = focus
		return map[string]any{"state": w.State.String()}, nil
	case registry.StateVisible:
		if focus {
			e.focus(w)
		}
		return map[string]any{"state": w.State.String()}, nil
	}

	w.State = registry.StatePendingReveal
	w.FocusOnReveal = focus
	e.warn(e.backend.SetOpacity(w.Surface, 0), "setOpacity", w.ID)
	e.pushBounds(w)
	e.warn(e.backend.SetVisible(w.Surface, true), "setVisible", w.ID)
	e.armReveal(w.ID)

	e.emit(protocol.ServiceVisibility, "contentSizeRequested", w.ID, nil)
	return map[string]any{"state": w.State.String()}, nil
}

func (e *Engine) armReveal(id string) {
	e.cancelReveal(id)
	e.revealGen[id]++
	gen := e.revealGen[id]
	e.reveals[id] = e.clock.AfterFunc(e.settings.RevealTimeout, func() {
		e.sched.Post(func() { e.revealTimedOut(id, gen) })
	})
}

func (e *Engine) cancelReveal(id string) {
	if t, ok := e.reveals[id]; ok {
		t.Stop()
		delete(e.reveals, id)
	}
}

func (e *Engine) revealTimedOut(id string, gen uint64) {
	if e.revealGen[id] != gen {
		return
	}
	w, ok := e.windows.Get(id)
	if !ok || w.State != registry.StatePendingReveal {
		return
	}
	e.log.Debug().Str("window", id).Dur("timeout", e.settings.RevealTimeout).Msg("reveal timed out, showing at current size")
	e.reveal(w, nil)
}

// cmdReveal completes a pending show, optionally at a content-reported size.
// It is a no-op for windows that are not pending.
func (e *Engine) cmdReveal(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	width := p.OptFloat("width")
	height := p.OptFloat("height")
	if err := p.Err(); err != nil {
		return nil, err
	}
	if w.State != registry.StatePendingReveal {
		return map[string]any{"revealed": false}, nil
	}

	var size *geom.Size
	if width != nil || height != nil {
		s := w.Frame.Size()
		if width != nil {
			s.Width = *width
		}
		if height != nil {
			s.Height = *height
		}
		size = &s
	}
	e.reveal(w, size)
	return map[string]any{"revealed": true}, nil
}

func (e *Engine) reveal(w *registry.Window, size *geom.Size) {
	e.cancelReveal(w.ID)
	if size != nil {
		e.resize(w, *size)
	}
	w.State = registry.StateVisible
	e.applyOpacity(w)
	if w.FocusOnReveal || w.FocusPolicy == registry.FocusAlways {
		e.focus(w)
	}
	w.FocusOnReveal = false
	e.snap.OnWindowShown(w.ID)
	e.emit(protocol.ServiceVisibility, "shown", w.ID, map[string]any{
		"width":  w.Frame.Width,
		"height": w.Frame.Height,
	})
}

func (e *Engine) cmdHide(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	w, ok := e.windows.Get(cmd.WindowID)
	if !ok {
		return map[string]any{"hidden": false}, nil
	}
	return map[string]any{"hidden": e.hide(w)}, nil
}

// hide unmaps w and applies the hidden policy of its followers. Windows
// that are not on screen are left alone.
func (e *Engine) hide(w *registry.Window) bool {
	if !w.State.OnScreen() {
		return false
	}
	e.cancelReveal(w.ID)
	e.drag.Cancel(w.ID)
	if e.focused == w.ID {
		e.unfocus(w)
	}
	e.warn(e.backend.SetVisible(w.Surface, false), "setVisible", w.ID)
	e.warn(e.backend.SetNonActivating(w.Surface, true), "setNonActivating", w.ID)
	w.State = registry.StateHidden
	w.FocusOnReveal = false

	e.emit(protocol.ServiceVisibility, "hidden", w.ID, map[string]any{
		"suspend": !w.KeepAlive,
	})
	e.snap.OnWindowHidden(w.ID)
	return true
}

func (e *Engine) cmdSetOpacity(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	v := p.RequireFloat("opacity")
	if err := p.Err(); err != nil {
		return nil, err
	}
	e.anim.Stop(w.ID, anim.PropOpacity)
	w.SetOpacity(v)
	e.applyOpacity(w)
	return map[string]any{"opacity": w.Opacity}, nil
}

func (e *Engine) cmdGetOpacity(cmd protocol.Command) (any, error) {
	w, ok := e.peek(cmd)
	if !ok {
		return map[string]any{"opacity": 1.0}, nil
	}
	return map[string]any{"opacity": w.Opacity}, nil
}

func (e *Engine) cmdIsVisible(cmd protocol.Command) (any, error) {
	w, ok := e.peek(cmd)
	return map[string]any{"visible": ok && w.State == registry.StateVisible}, nil
}
