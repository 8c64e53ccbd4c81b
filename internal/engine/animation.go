package engine

import (
	"time"

	"github.com/1broseidon/palettekit/internal/anim"
	"github.com/1broseidon/palettekit/internal/protocol"
)

func (e *Engine) registerAnimation() {
	e.register(protocol.ServiceAnimation, "animate", e.cmdAnimate)
	e.register(protocol.ServiceAnimation, "animateMultiple", e.cmdAnimateMultiple)
	e.register(protocol.ServiceAnimation, "stop", e.cmdStopAnimation)
	e.register(protocol.ServiceAnimation, "stopAll", e.cmdStopAllAnimations)
	e.register(protocol.ServiceAnimation, "isAnimating", e.cmdIsAnimating)
}

type timing struct {
	duration time.Duration
	easing   anim.Easing
	err      error
}

// readTiming decodes duration (milliseconds) and easing.
func (e *Engine) readTiming(p *protocol.Reader) timing {
	t := timing{duration: e.settings.AnimationDuration}
	if d := p.OptFloat("duration"); d != nil {
		t.duration = ms(*d)
	}
	easing, err := anim.ParseEasing(p.String("easing", ""))
	if err != nil {
		t.err = invalid(err)
	}
	t.easing = easing
	return t
}

func readSpec(p *protocol.Reader, t timing) (anim.Spec, error) {
	prop, err := anim.ParseProperty(p.RequireString("property"))
	if perr := p.Err(); perr != nil {
		return anim.Spec{}, perr
	}
	if err != nil {
		return anim.Spec{}, invalid(err)
	}
	spec := anim.Spec{
		Property: prop,
		From:     p.OptFloat("from"),
		To:       p.RequireFloat("to"),
		Duration: t.duration,
		Easing:   t.easing,
	}
	if err := p.Err(); err != nil {
		return anim.Spec{}, err
	}
	return spec, nil
}

func (e *Engine) cmdAnimate(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	t := e.readTiming(p)
	if t.err != nil {
		return nil, t.err
	}
	spec, err := readSpec(p, t)
	if err != nil {
		return nil, err
	}
	if err := e.anim.Animate(w.ID, spec); err != nil {
		return nil, protocol.Internal("animate %s: %v", spec.Property, err)
	}
	return map[string]any{"property": string(spec.Property)}, nil
}

// cmdAnimateMultiple validates every entry before starting any of them.
func (e *Engine) cmdAnimateMultiple(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	t := e.readTiming(p)
	entries := p.Maps("animations")
	if err := p.Err(); err != nil {
		return nil, err
	}
	if t.err != nil {
		return nil, t.err
	}
	if len(entries) == 0 {
		return nil, protocol.InvalidParams("animations must not be empty")
	}

	specs := make([]anim.Spec, 0, len(entries))
	for _, entry := range entries {
		ep := entry.Reader()
		et := t
		if d := ep.OptFloat("duration"); d != nil {
			et.duration = ms(*d)
		}
		if name := ep.String("easing", ""); name != "" {
			easing, err := anim.ParseEasing(name)
			if err != nil {
				return nil, invalid(err)
			}
			et.easing = easing
		}
		spec, err := readSpec(ep, et)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	started := make([]string, 0, len(specs))
	for _, spec := range specs {
		if err := e.anim.Animate(w.ID, spec); err != nil {
			return nil, protocol.Internal("animate %s: %v", spec.Property, err)
		}
		started = append(started, string(spec.Property))
	}
	return map[string]any{"properties": started}, nil
}

func (e *Engine) cmdStopAnimation(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	p := cmd.Params.Reader()
	name := p.String("property", "")
	if err := p.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		e.anim.StopAll(cmd.WindowID)
		return nil, nil
	}
	prop, err := anim.ParseProperty(name)
	if err != nil {
		return nil, invalid(err)
	}
	e.anim.Stop(cmd.WindowID, prop)
	return nil, nil
}

func (e *Engine) cmdStopAllAnimations(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	e.anim.StopAll(cmd.WindowID)
	return nil, nil
}

func (e *Engine) cmdIsAnimating(cmd protocol.Command) (any, error) {
	if _, ok := e.peek(cmd); !ok {
		return map[string]any{"animating": false}, nil
	}
	name := cmd.Params.Reader().String("property", "")
	if name == "" {
		return map[string]any{"animating": e.anim.IsAnimating(cmd.WindowID)}, nil
	}
	prop, err := anim.ParseProperty(name)
	if err != nil {
		return map[string]any{"animating": false}, nil
	}
	return map[string]any{"animating": e.anim.IsAnimatingProperty(cmd.WindowID, prop)}, nil
}
