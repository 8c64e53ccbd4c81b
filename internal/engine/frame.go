package engine

import (
	"github.com/1broseidon/palettekit/internal/anim"
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
)

func (e *Engine) registerFrame() {
	e.register(protocol.ServiceFrame, "setPosition", e.cmdSetPosition)
	e.register(protocol.ServiceFrame, "setSize", e.cmdSetSize)
	e.register(protocol.ServiceFrame, "setBounds", e.cmdSetBounds)
	e.register(protocol.ServiceFrame, "setSizeLimits", e.cmdSetSizeLimits)
	e.register(protocol.ServiceFrame, "getPosition", e.cmdGetPosition)
	e.register(protocol.ServiceFrame, "getSize", e.cmdGetSize)
	e.register(protocol.ServiceFrame, "getBounds", e.cmdGetBounds)
	e.register(protocol.ServiceFrame, "startDrag", e.cmdStartDrag)
	e.register(protocol.ServiceFrame, "setDraggable", e.cmdSetDraggable)
}

// motion is the optional animation block shared by geometry commands.
type motion struct {
	animate bool
	timing  timing
}

func (e *Engine) readMotion(p *protocol.Reader) motion {
	return motion{
		animate: p.Bool("animate", false),
		timing:  e.readTiming(p),
	}
}

// animateTo starts one animation per changed property.
func (e *Engine) animateTo(w *registry.Window, m motion, targets map[anim.Property]float64) error {
	for _, prop := range anim.Properties() {
		to, ok := targets[prop]
		if !ok {
			continue
		}
		if err := e.anim.Animate(w.ID, anim.Spec{
			Property: prop,
			To:       to,
			Duration: m.timing.duration,
			Easing:   m.timing.easing,
		}); err != nil {
			return protocol.Internal("animate %s: %v", prop, err)
		}
	}
	return nil
}

func (e *Engine) cmdSetPosition(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	x := p.Float("x", w.Frame.X)
	y := p.Float("y", w.Frame.Y)
	anchorName := p.String("anchor", "")
	m := e.readMotion(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := m.timing.err; err != nil {
		return nil, err
	}
	anchor, err := geom.ParseAnchor(anchorName)
	if err != nil {
		return nil, invalid(err)
	}

	origin := anchor.OriginFor(geom.Point{X: x, Y: y}, w.Frame.Size())
	if m.animate {
		return nil, e.animateTo(w, m, map[anim.Property]float64{
			anim.PropX: origin.X,
			anim.PropY: origin.Y,
		})
	}
	e.anim.Stop(w.ID, anim.PropX)
	e.anim.Stop(w.ID, anim.PropY)
	e.moveTo(w, origin)
	return map[string]any{"x": w.Frame.X, "y": w.Frame.Y}, nil
}

func (e *Engine) cmdSetSize(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	size := geom.Size{
		Width:  p.Float("width", w.Frame.Width),
		Height: p.Float("height", w.Frame.Height),
	}
	m := e.readMotion(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := m.timing.err; err != nil {
		return nil, err
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, protocol.InvalidParams("width and height must be positive")
	}

	if m.animate {
		size = w.Limits.Apply(size)
		return nil, e.animateTo(w, m, map[anim.Property]float64{
			anim.PropWidth:  size.Width,
			anim.PropHeight: size.Height,
		})
	}
	e.anim.Stop(w.ID, anim.PropWidth)
	e.anim.Stop(w.ID, anim.PropHeight)
	e.resize(w, size)
	return map[string]any{"width": w.Frame.Width, "height": w.Frame.Height}, nil
}

func (e *Engine) cmdSetBounds(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	r := geom.Rect{
		X:      p.Float("x", w.Frame.X),
		Y:      p.Float("y", w.Frame.Y),
		Width:  p.Float("width", w.Frame.Width),
		Height: p.Float("height", w.Frame.Height),
	}
	m := e.readMotion(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := m.timing.err; err != nil {
		return nil, err
	}
	if r.Width <= 0 || r.Height <= 0 {
		return nil, protocol.InvalidParams("width and height must be positive")
	}

	if m.animate {
		size := w.Limits.Apply(r.Size())
		return nil, e.animateTo(w, m, map[anim.Property]float64{
			anim.PropX:      r.X,
			anim.PropY:      r.Y,
			anim.PropWidth:  size.Width,
			anim.PropHeight: size.Height,
		})
	}
	for _, prop := range []anim.Property{anim.PropX, anim.PropY, anim.PropWidth, anim.PropHeight} {
		e.anim.Stop(w.ID, prop)
	}
	e.resize(w, r.Size())
	e.moveTo(w, r.Origin())
	return w.Frame, nil
}

func (e *Engine) cmdSetSizeLimits(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	l := geom.Limits{
		MinWidth:  p.Float("minWidth", 0),
		MinHeight: p.Float("minHeight", 0),
		MaxWidth:  p.Float("maxWidth", 0),
		MaxHeight: p.Float("maxHeight", 0),
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	before := w.Frame.Size()
	w.Limits = l
	if after := l.Apply(before); after != before {
		e.resize(w, after)
	}
	return w.Limits, nil
}

func (e *Engine) cmdGetPosition(cmd protocol.Command) (any, error) {
	var pt geom.Point
	if w, ok := e.peek(cmd); ok {
		pt = w.Frame.Origin()
	}
	return pt, nil
}

func (e *Engine) cmdGetSize(cmd protocol.Command) (any, error) {
	var s geom.Size
	if w, ok := e.peek(cmd); ok {
		s = w.Frame.Size()
	}
	return s, nil
}

func (e *Engine) cmdGetBounds(cmd protocol.Command) (any, error) {
	var r geom.Rect
	if w, ok := e.peek(cmd); ok {
		r = w.Frame
	}
	return r, nil
}

// cmdStartDrag begins an interactive drag. Refusals are silent.
func (e *Engine) cmdStartDrag(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	started := e.drag.Start(w.ID)
	if !started {
		e.log.Debug().Str("window", describe(w)).Msg("drag not started")
		return map[string]any{"started": false}, nil
	}
	e.anim.Stop(w.ID, anim.PropX)
	e.anim.Stop(w.ID, anim.PropY)
	return map[string]any{"started": true}, nil
}

func (e *Engine) cmdSetDraggable(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	w.Draggable = p.Bool("draggable", true)
	return nil, p.Err()
}
