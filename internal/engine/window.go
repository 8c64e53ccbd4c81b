package engine

import (
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
	"github.com/1broseidon/palettekit/internal/snap"
)

func (e *Engine) registerWindow() {
	e.register(protocol.ServiceWindow, "create", e.cmdCreate)
	e.register(protocol.ServiceWindow, "destroy", e.cmdDestroy)
	e.register(protocol.ServiceWindow, "exists", e.cmdExists)
	e.register(protocol.ServiceWindow, "setEntryPoint", e.cmdSetEntryPoint)
	e.register(protocol.ServiceWindow, "list", e.cmdList)
}

func (e *Engine) cmdCreate(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	if _, exists := e.windows.Get(cmd.WindowID); exists {
		return nil, protocol.AlreadyExists(cmd.WindowID)
	}

	p := cmd.Params.Reader()
	def := e.settings.Window
	opts := registry.Options{
		Opacity:     def.Opacity,
		Draggable:   def.Draggable,
		FocusPolicy: def.FocusPolicy,
	}
	width, height := def.Width, def.Height

	presetName := p.String("preset", "")
	var preset Preset
	if presetName != "" {
		var ok bool
		preset, ok = e.presets[presetName]
		if !ok {
			return nil, protocol.InvalidParams("unknown preset %q", presetName)
		}
		opts.Preset = presetName
		if preset.Width > 0 {
			width = preset.Width
		}
		if preset.Height > 0 {
			height = preset.Height
		}
		opts.Limits = preset.Limits
		opts.KeepAlive = preset.KeepAlive
		if preset.Opacity != nil {
			opts.Opacity = *preset.Opacity
		}
		if preset.Draggable != nil {
			opts.Draggable = *preset.Draggable
		}
		if preset.FocusPolicy != nil {
			opts.FocusPolicy = *preset.FocusPolicy
		}
		if preset.Level != nil {
			opts.Level = *preset.Level
		}
	}

	opts.Frame = geom.Rect{
		X:      p.Float("x", 0),
		Y:      p.Float("y", 0),
		Width:  p.Float("width", width),
		Height: p.Float("height", height),
	}
	opts.Limits = geom.Limits{
		MinWidth:  p.Float("minWidth", opts.Limits.MinWidth),
		MinHeight: p.Float("minHeight", opts.Limits.MinHeight),
		MaxWidth:  p.Float("maxWidth", opts.Limits.MaxWidth),
		MaxHeight: p.Float("maxHeight", opts.Limits.MaxHeight),
	}
	opts.Opacity = p.Float("opacity", opts.Opacity)
	opts.CornerRadius = p.Float("cornerRadius", 0)
	opts.Draggable = p.Bool("draggable", opts.Draggable)
	opts.KeepAlive = p.Bool("keepAlive", opts.KeepAlive)
	opts.EntryPoint = p.Raw("entryPoint")
	policy := p.String("focusPolicy", "")
	level := p.String("zLevel", p.String("level", ""))
	if err := p.Err(); err != nil {
		return nil, err
	}
	if policy != "" {
		fp, err := registry.ParseFocusPolicy(policy)
		if err != nil {
			return nil, invalid(err)
		}
		opts.FocusPolicy = fp
	}
	if level != "" {
		lv, err := registry.ParseLevel(level)
		if err != nil {
			return nil, invalid(err)
		}
		opts.Level = lv
	}
	var auto *snap.AutoSnapConfig
	if cmd.Params.Has("autoSnap") {
		cfg, err := parseAutoSnap(p.Map("autoSnap"))
		if err != nil {
			return nil, err
		}
		auto = &cfg
	}
	if opts.Frame.Width <= 0 || opts.Frame.Height <= 0 {
		return nil, protocol.InvalidParams("width and height must be positive")
	}

	w := registry.NewWindow(cmd.WindowID, opts, e.clock.Now())
	surface, err := e.backend.CreateSurface(platform.ToPhysical(w.Frame, e.scaleFor(w.Frame)))
	if err != nil {
		return nil, protocol.Internal("create surface for %s: %v", cmd.WindowID, err)
	}
	w.Surface = surface
	if err := e.windows.Add(w); err != nil {
		e.warn(e.backend.DestroySurface(surface), "destroySurface", w.ID)
		return nil, err
	}

	e.warn(e.backend.SetNonActivating(surface, true), "setNonActivating", w.ID)
	if w.Level != platform.LevelNormal {
		e.warn(e.backend.SetLevel(surface, w.Level), "setLevel", w.ID)
	}
	e.restack()

	if preset.AutoSnap != nil {
		e.snap.SetAutoSnap(w.ID, *preset.AutoSnap)
	}
	if auto != nil {
		e.snap.SetAutoSnap(w.ID, *auto)
	}

	e.log.Debug().Str("window", describe(w)).Interface("frame", w.Frame).Msg("window created")
	e.emit(protocol.ServiceWindow, "created", w.ID, map[string]any{
		"x":      w.Frame.X,
		"y":      w.Frame.Y,
		"width":  w.Frame.Width,
		"height": w.Frame.Height,
	})
	return e.snapshotOf(w), nil
}

func (e *Engine) cmdDestroy(cmd protocol.Command) (any, error) {
	if cmd.WindowID == "" {
		return nil, protocol.MissingID()
	}
	w, ok := e.windows.Get(cmd.WindowID)
	if !ok {
		return map[string]any{"destroyed": false}, nil
	}
	e.destroy(w)
	return map[string]any{"destroyed": true}, nil
}

// destroy tears down every piece of state held for w before releasing its
// surface.
func (e *Engine) destroy(w *registry.Window) {
	id := w.ID
	e.cancelReveal(id)
	e.drag.Cancel(id)
	e.anim.StopAll(id)
	e.warn(e.input.Remove(id), "releaseInput", id)
	if e.focused == id {
		e.focused = ""
	}
	e.windows.Remove(id)
	delete(e.revealGen, id)
	e.snap.OnWindowDestroyed(id)
	e.warn(e.backend.DestroySurface(w.Surface), "destroySurface", id)

	e.log.Debug().Str("window", id).Msg("window destroyed")
	e.emit(protocol.ServiceWindow, "destroyed", id, nil)
}

// Forget destroys a window whose surface vanished underneath the engine.
func (e *Engine) Forget(id string) bool {
	w, ok := e.windows.Get(id)
	if !ok {
		return false
	}
	e.destroy(w)
	return true
}

// Reconcile destroys windows whose surfaces no longer exist and drops snap
// state that refers to unknown windows. It returns the ids it removed.
func (e *Engine) Reconcile() []string {
	var gone []string
	for _, id := range e.windows.IDs() {
		w, _ := e.windows.Get(id)
		if !e.backend.SurfaceExists(w.Surface) {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		e.log.Info().Str("window", id).Msg("surface vanished, destroying window")
		e.Forget(id)
	}
	if n := e.snap.Prune(e.windowExists); n > 0 {
		e.log.Debug().Int("bindings", n).Msg("pruned stale snap bindings")
	}
	return gone
}

func (e *Engine) windowExists(id string) bool {
	_, ok := e.windows.Get(id)
	return ok
}

func (e *Engine) cmdExists(cmd protocol.Command) (any, error) {
	_, ok := e.peek(cmd)
	return map[string]any{"exists": ok}, nil
}

func (e *Engine) cmdSetEntryPoint(cmd protocol.Command) (any, error) {
	w, err := e.lookup(cmd)
	if err != nil {
		return nil, err
	}
	w.EntryPoint = cmd.Params.Reader().Raw("entryPoint")
	return nil, nil
}

func (e *Engine) cmdList(protocol.Command) (any, error) {
	return map[string]any{"windows": e.windows.IDs()}, nil
}
