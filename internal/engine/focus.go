package engine

import (
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
)

func (e *Engine) registerFocus() {
	e.register(protocol.ServiceFocus, "focus", e.cmdFocus)
	e.register(protocol.ServiceFocus, "unfocus", e.cmdUnfocus)
	e.register(protocol.ServiceFocus, "setPolicy", e.cmdSetFocusPolicy)
	e.register(protocol.ServiceFocus, "isFocused", e.cmdIsFocused)
}

// focus makes w the key window. Windows with the never policy and windows
// that are not on screen are refused.
func (e *Engine) focus(w *registry.Window) bool {
	if w.FocusPolicy == registry.FocusNever || !w.State.OnScreen() {
		return false
	}
	if e.focused == w.ID {
		return true
	}
	if prev, ok := e.windows.Get(e.focused); ok {
		e.unfocus(prev)
	}
	e.warn(e.backend.SetNonActivating(w.Surface, false), "setNonActivating", w.ID)
	e.warn(e.backend.Focus(w.Surface), "focus", w.ID)
	e.focused = w.ID
	e.emit(protocol.ServiceFocus, "focused", w.ID, nil)
	return true
}

func (e *Engine) unfocus(w *registry.Window) {
	if e.focused != w.ID {
		return
	}
	e.focused = ""
	e.warn(e.backend.SetNonActivating(w.Surface, true), "setNonActivating", w.ID)
	e.emit(protocol.ServiceFocus, "unfocused", w.ID, nil)
}

func (e *Engine) cmdFocus(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	return map[string]any{"focused": e.focus(w)}, nil
}

func (e *Engine) cmdUnfocus(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	if w, ok := e.windows.Get(cmd.WindowID); ok {
		e.unfocus(w)
	}
	return nil, nil
}

func (e *Engine) cmdSetFocusPolicy(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	name := p.RequireString("policy")
	if err := p.Err(); err != nil {
		return nil, err
	}
	policy, err := registry.ParseFocusPolicy(name)
	if err != nil {
		return nil, invalid(err)
	}
	w.FocusPolicy = policy
	if policy == registry.FocusNever {
		e.unfocus(w)
	}
	return map[string]any{"policy": policy.String()}, nil
}

func (e *Engine) cmdIsFocused(cmd protocol.Command) (any, error) {
	_, ok := e.peek(cmd)
	return map[string]any{"focused": ok && e.focused == cmd.WindowID}, nil
}

// Focused returns the key window id, if any.
func (e *Engine) Focused() string {
	return e.focused
}
