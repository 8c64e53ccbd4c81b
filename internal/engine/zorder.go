package engine

import (
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
)

func (e *Engine) registerZOrder() {
	e.register(protocol.ServiceZOrder, "bringToFront", e.cmdBringToFront)
	e.register(protocol.ServiceZOrder, "sendToBack", e.cmdSendToBack)
	e.register(protocol.ServiceZOrder, "moveAbove", e.cmdMoveAbove)
	e.register(protocol.ServiceZOrder, "moveBelow", e.cmdMoveBelow)
	e.register(protocol.ServiceZOrder, "setZIndex", e.cmdSetZIndex)
	e.register(protocol.ServiceZOrder, "getZIndex", e.cmdGetZIndex)
	e.register(protocol.ServiceZOrder, "setLevel", e.cmdSetLevel)
	e.register(protocol.ServiceZOrder, "pin", e.cmdPin)
	e.register(protocol.ServiceZOrder, "unpin", e.cmdUnpin)
}

// restack pushes the registry order to the backend, bottom first.
func (e *Engine) restack() {
	stack := e.windows.Stack()
	for i, w := range stack {
		var sibling platform.SurfaceID
		if i > 0 {
			sibling = stack[i-1].Surface
		}
		e.warn(e.backend.Restack(w.Surface, sibling, i > 0), "restack", w.ID)
	}
}

func (e *Engine) reordered(w *registry.Window) (any, error) {
	e.restack()
	index := e.windows.Index(w.ID)
	e.emit(protocol.ServiceZOrder, "zOrderChanged", w.ID, map[string]any{"zIndex": index})
	return map[string]any{"zIndex": index}, nil
}

func (e *Engine) cmdBringToFront(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	e.windows.BringToFront(w.ID)
	return e.reordered(w)
}

func (e *Engine) cmdSendToBack(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	e.windows.SendToBack(w.ID)
	return e.reordered(w)
}

func (e *Engine) relative(cmd protocol.Command) (*registry.Window, string, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, "", err
	}
	p := cmd.Params.Reader()
	other := p.RequireString("otherId")
	if err := p.Err(); err != nil {
		return nil, "", err
	}
	if _, ok := e.windows.Get(other); !ok {
		return nil, "", protocol.TargetNotFound(other)
	}
	return w, other, nil
}

func (e *Engine) cmdMoveAbove(cmd protocol.Command) (any, error) {
	w, other, err := e.relative(cmd)
	if err != nil {
		return nil, err
	}
	e.windows.MoveAbove(w.ID, other)
	return e.reordered(w)
}

func (e *Engine) cmdMoveBelow(cmd protocol.Command) (any, error) {
	w, other, err := e.relative(cmd)
	if err != nil {
		return nil, err
	}
	e.windows.MoveBelow(w.ID, other)
	return e.reordered(w)
}

func (e *Engine) cmdSetZIndex(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	index := p.RequireFloat("zIndex")
	if err := p.Err(); err != nil {
		return nil, err
	}
	e.windows.SetIndex(w.ID, int(index))
	return e.reordered(w)
}

func (e *Engine) cmdGetZIndex(cmd protocol.Command) (any, error) {
	if _, ok := e.peek(cmd); !ok {
		return map[string]any{"zIndex": -1}, nil
	}
	return map[string]any{"zIndex": e.windows.Index(cmd.WindowID)}, nil
}

func (e *Engine) setLevel(w *registry.Window, level platform.Level) (any, error) {
	w.Level = level
	e.warn(e.backend.SetLevel(w.Surface, level), "setLevel", w.ID)
	e.windows.Relevel()
	return e.reordered(w)
}

func (e *Engine) cmdSetLevel(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	name := p.RequireString("level")
	if err := p.Err(); err != nil {
		return nil, err
	}
	level, err := registry.ParseLevel(name)
	if err != nil {
		return nil, invalid(err)
	}
	return e.setLevel(w, level)
}

func (e *Engine) cmdPin(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	name := p.String("level", "aboveNormal")
	if err := p.Err(); err != nil {
		return nil, err
	}
	level, err := registry.ParseLevel(name)
	if err != nil {
		return nil, invalid(err)
	}
	return e.setLevel(w, level)
}

func (e *Engine) cmdUnpin(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	return e.setLevel(w, platform.LevelNormal)
}
