package engine

import (
	"github.com/1broseidon/palettekit/internal/anim"
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
)

// Transforms are display-only. Snap and hit-testing keep using the frame.

func (e *Engine) registerTransform() {
	e.register(protocol.ServiceTransform, "setScale", e.cmdSetScale)
	e.register(protocol.ServiceTransform, "setRotation", e.cmdSetRotation)
	e.register(protocol.ServiceTransform, "setFlip", e.cmdSetFlip)
	e.register(protocol.ServiceTransform, "reset", e.cmdResetTransform)
	e.register(protocol.ServiceTransform, "getScale", e.cmdGetScale)
	e.register(protocol.ServiceTransform, "getRotation", e.cmdGetRotation)
	e.register(protocol.ServiceTransform, "getFlip", e.cmdGetFlip)
}

func (e *Engine) emitTransform(w *registry.Window) {
	e.emit(protocol.ServiceTransform, "changed", w.ID, map[string]any{
		"scaleX":         w.Transform.ScaleX,
		"scaleY":         w.Transform.ScaleY,
		"rotation":       w.Transform.Rotation,
		"flipHorizontal": w.Transform.FlipH,
		"flipVertical":   w.Transform.FlipV,
	})
}

func (e *Engine) cmdSetScale(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	uniform := p.Float("scale", 0)
	sx := p.Float("scaleX", w.Transform.ScaleX)
	sy := p.Float("scaleY", w.Transform.ScaleY)
	m := e.readMotion(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := m.timing.err; err != nil {
		return nil, err
	}
	if cmd.Params.Has("scale") {
		sx, sy = uniform, uniform
	}
	if sx <= 0 || sy <= 0 {
		return nil, protocol.InvalidParams("scale must be positive")
	}

	if m.animate {
		return nil, e.animateTo(w, m, map[anim.Property]float64{
			anim.PropScaleX: sx,
			anim.PropScaleY: sy,
		})
	}
	e.anim.Stop(w.ID, anim.PropScaleX)
	e.anim.Stop(w.ID, anim.PropScaleY)
	w.Transform.ScaleX, w.Transform.ScaleY = sx, sy
	e.emitTransform(w)
	return w.Transform, nil
}

func (e *Engine) cmdSetRotation(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	deg := p.Float("degrees", p.Float("rotation", 0))
	m := e.readMotion(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := m.timing.err; err != nil {
		return nil, err
	}
	if m.animate {
		return nil, e.animateTo(w, m, map[anim.Property]float64{anim.PropRotation: deg})
	}
	e.anim.Stop(w.ID, anim.PropRotation)
	w.Transform.Rotation = deg
	e.emitTransform(w)
	return w.Transform, nil
}

func (e *Engine) cmdSetFlip(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	w.Transform.FlipH = p.Bool("horizontal", w.Transform.FlipH)
	w.Transform.FlipV = p.Bool("vertical", w.Transform.FlipV)
	if err := p.Err(); err != nil {
		return nil, err
	}
	e.emitTransform(w)
	return w.Transform, nil
}

func (e *Engine) cmdResetTransform(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	for _, prop := range []anim.Property{anim.PropScaleX, anim.PropScaleY, anim.PropRotation} {
		e.anim.Stop(w.ID, prop)
	}
	w.Transform = geom.Identity()
	e.emitTransform(w)
	return w.Transform, nil
}

func (e *Engine) transformOf(cmd protocol.Command) geom.Transform {
	if w, ok := e.peek(cmd); ok {
		return w.Transform
	}
	return geom.Identity()
}

func (e *Engine) cmdGetScale(cmd protocol.Command) (any, error) {
	t := e.transformOf(cmd)
	return map[string]any{"scaleX": t.ScaleX, "scaleY": t.ScaleY}, nil
}

func (e *Engine) cmdGetRotation(cmd protocol.Command) (any, error) {
	return map[string]any{"degrees": e.transformOf(cmd).Rotation}, nil
}

func (e *Engine) cmdGetFlip(cmd protocol.Command) (any, error) {
	t := e.transformOf(cmd)
	return map[string]any{"horizontal": t.FlipH, "vertical": t.FlipV}, nil
}
