package engine

import (
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
)

func (e *Engine) registerInput() {
	e.register(protocol.ServiceInput, "captureKeyboard", e.cmdCaptureKeyboard)
	e.register(protocol.ServiceInput, "releaseKeyboard", e.cmdReleaseKeyboard)
	e.register(protocol.ServiceInput, "capturePointer", e.cmdCapturePointer)
	e.register(protocol.ServiceInput, "releasePointer", e.cmdReleasePointer)
	e.register(protocol.ServiceInput, "setCursor", e.cmdSetCursor)
	e.register(protocol.ServiceInput, "setPassthrough", e.cmdSetPassthrough)
}

func (e *Engine) cmdCaptureKeyboard(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	keys := p.Int64s("keys")
	all := p.Bool("allKeys", len(keys) == 0)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := e.input.CaptureKeyboard(w.ID, all, keys); err != nil {
		return nil, protocol.Internal("install key hook: %v", err)
	}
	return nil, nil
}

func (e *Engine) cmdReleaseKeyboard(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	e.warn(e.input.ReleaseKeyboard(cmd.WindowID), "removeKeyHook", cmd.WindowID)
	return nil, nil
}

func (e *Engine) cmdCapturePointer(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	if err := e.input.CapturePointer(w.ID); err != nil {
		return nil, protocol.Internal("install pointer hook: %v", err)
	}
	return nil, nil
}

func (e *Engine) cmdReleasePointer(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	e.warn(e.input.ReleasePointer(cmd.WindowID), "removePointerHook", cmd.WindowID)
	return nil, nil
}

func (e *Engine) cmdSetCursor(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	name := p.RequireString("cursor")
	if err := p.Err(); err != nil {
		return nil, err
	}
	cursor, err := platform.ParseCursor(name)
	if err != nil {
		return nil, invalid(err)
	}
	w.Cursor = cursor.String()
	e.warn(e.backend.SetCursor(w.Surface, cursor), "setCursor", w.ID)
	return map[string]any{"cursor": w.Cursor}, nil
}

func (e *Engine) cmdSetPassthrough(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	on := p.Bool("passthrough", p.Bool("enabled", true))
	if err := p.Err(); err != nil {
		return nil, err
	}
	w.Passthrough = on
	e.warn(e.backend.SetPassthrough(w.Surface, on), "setPassthrough", w.ID)
	return map[string]any{"passthrough": on}, nil
}
