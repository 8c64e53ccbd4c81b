package engine

import (
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/snap"
)

func (e *Engine) registerSnap() {
	e.register(protocol.ServiceSnap, "snap", e.cmdSnap)
	e.register(protocol.ServiceSnap, "detach", e.cmdDetach)
	e.register(protocol.ServiceSnap, "reSnap", e.cmdReSnap)
	e.register(protocol.ServiceSnap, "getSnapDistance", e.cmdGetSnapDistance)
	e.register(protocol.ServiceSnap, "getBinding", e.cmdGetBinding)
	e.register(protocol.ServiceSnap, "setAutoSnapConfig", e.cmdSetAutoSnapConfig)
}

// followerID accepts either an explicit followerId or the command's window.
func followerID(cmd protocol.Command, key string) (string, error) {
	id := cmd.Params.Reader().String(key, "")
	if id == "" {
		id = cmd.WindowID
	}
	if id == "" {
		return "", protocol.MissingID()
	}
	return id, nil
}

func (e *Engine) cmdSnap(cmd protocol.Command) (any, error) {
	follower, err := followerID(cmd, "followerId")
	if err != nil {
		return nil, err
	}
	p := cmd.Params.Reader()
	target := p.RequireString("targetId")
	fe := p.RequireString("followerEdge")
	te := p.RequireString("targetEdge")
	align := p.String("alignment", "")
	gap := p.Float("gap", 0)
	cfg := p.Map("config")
	if err := p.Err(); err != nil {
		return nil, err
	}

	b := snap.Binding{Follower: follower, Target: target, Gap: gap}
	if b.FollowerEdge, err = geom.ParseEdge(fe); err != nil {
		return nil, invalid(err)
	}
	if b.TargetEdge, err = geom.ParseEdge(te); err != nil {
		return nil, invalid(err)
	}
	if b.Alignment, err = geom.ParseAlignment(align); err != nil {
		return nil, invalid(err)
	}

	defaults := e.snap.Defaults()
	cr := cfg.Reader()
	onHidden := cr.String("onTargetHidden", "")
	onDestroyed := cr.String("onTargetDestroyed", "")
	if err := cr.Err(); err != nil {
		return nil, err
	}
	if b.OnTargetHidden, err = snap.ParsePolicy(onHidden, defaults.OnTargetHidden); err != nil {
		return nil, invalid(err)
	}
	if b.OnTargetDestroyed, err = snap.ParsePolicy(onDestroyed, defaults.OnTargetDestroyed); err != nil {
		return nil, invalid(err)
	}

	if err := e.snap.Bind(b); err != nil {
		return nil, err
	}
	return b.Info(), nil
}

func (e *Engine) cmdDetach(cmd protocol.Command) (any, error) {
	follower, err := followerID(cmd, "followerId")
	if err != nil {
		return nil, err
	}
	_, bound := e.snap.Binding(follower)
	e.snap.Detach(follower)
	return map[string]any{"detached": bound}, nil
}

func (e *Engine) cmdReSnap(cmd protocol.Command) (any, error) {
	follower, err := followerID(cmd, "followerId")
	if err != nil {
		return nil, err
	}
	if err := e.snap.ReSnap(follower); err != nil {
		return nil, err
	}
	return nil, nil
}

func (e *Engine) cmdGetSnapDistance(cmd protocol.Command) (any, error) {
	follower, err := followerID(cmd, "followerId")
	if err != nil {
		return map[string]any{"distance": 0.0}, nil
	}
	return map[string]any{"distance": e.snap.Distance(follower)}, nil
}

func (e *Engine) cmdGetBinding(cmd protocol.Command) (any, error) {
	follower, err := followerID(cmd, "followerId")
	if err != nil {
		return nil, nil
	}
	b, ok := e.snap.Binding(follower)
	if !ok {
		return nil, nil
	}
	return b.Info(), nil
}

func (e *Engine) cmdSetAutoSnapConfig(cmd protocol.Command) (any, error) {
	id, err := followerID(cmd, "paletteId")
	if err != nil {
		return nil, err
	}
	if _, ok := e.windows.Get(id); !ok {
		return nil, protocol.NotFound(id)
	}
	p := cmd.Params.Reader()
	raw := p.Map("config")
	if err := p.Err(); err != nil {
		return nil, err
	}
	if !cmd.Params.Has("config") {
		raw = cmd.Params
	}
	cfg, err := parseAutoSnap(raw)
	if err != nil {
		return nil, err
	}
	e.snap.SetAutoSnap(id, cfg)
	return nil, nil
}

func parseAutoSnap(raw protocol.Params) (snap.AutoSnapConfig, error) {
	r := raw.Reader()
	from := r.Strings("canSnapFrom")
	on := r.Strings("acceptsSnapOn")
	cfg := snap.AutoSnapConfig{
		TargetIDs:          r.Strings("targetIds"),
		ProximityThreshold: r.Float("proximityThreshold", 0),
	}
	if err := r.Err(); err != nil {
		return snap.AutoSnapConfig{}, err
	}
	var err error
	if cfg.CanSnapFrom, err = parseEdges(from); err != nil {
		return snap.AutoSnapConfig{}, err
	}
	if cfg.AcceptsSnapOn, err = parseEdges(on); err != nil {
		return snap.AutoSnapConfig{}, err
	}
	return cfg, nil
}

func parseEdges(names []string) ([]geom.Edge, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]geom.Edge, 0, len(names))
	for _, n := range names {
		edge, err := geom.ParseEdge(n)
		if err != nil {
			return nil, invalid(err)
		}
		out = append(out, edge)
	}
	return out, nil
}
