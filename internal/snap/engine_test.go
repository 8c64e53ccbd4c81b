package snap

import (
	"testing"

	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	name   string
	window string
	data   map[string]any
}

type fakeHost struct {
	frames  map[string]geom.Rect
	hidden  map[string]bool
	engine  *Engine
	hideLog []string
}

func (h *fakeHost) Frame(id string) (geom.Rect, bool) {
	r, ok := h.frames[id]
	return r, ok
}

func (h *fakeHost) IsVisible(id string) bool {
	_, ok := h.frames[id]
	return ok && !h.hidden[id]
}

func (h *fakeHost) MoveTo(id string, p geom.Point) {
	h.frames[id] = h.frames[id].Moved(p)
	h.engine.RepositionFollowers(id)
}

func (h *fakeHost) Hide(id string) {
	if h.hidden[id] {
		return
	}
	h.hidden[id] = true
	h.hideLog = append(h.hideLog, id)
	h.engine.OnWindowHidden(id)
}

func setup(frames map[string]geom.Rect) (*Engine, *fakeHost, *[]event) {
	host := &fakeHost{frames: frames, hidden: map[string]bool{}}
	var events []event
	e := NewEngine(host, func(name, window string, data map[string]any) {
		events = append(events, event{name, window, data})
	}, DefaultDefaults())
	host.engine = e
	return e, host, &events
}

func names(events []event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.name
	}
	return out
}

func TestPositionTopToBottomCentered(t *testing.T) {
	target := geom.Rect{X: 0, Y: 0, Width: 200, Height: 100}
	follower := geom.Rect{X: 500, Y: 500, Width: 160, Height: 50}
	b := Binding{FollowerEdge: geom.EdgeTop, TargetEdge: geom.EdgeBottom, Alignment: geom.AlignCenter, Gap: 4}

	assert.Equal(t, geom.Point{X: 20, Y: 104}, Position(follower, target, b))
}

func TestPositionAllEdges(t *testing.T) {
	target := geom.Rect{X: 100, Y: 100, Width: 200, Height: 100}
	follower := geom.Rect{Width: 50, Height: 40}
	tests := []struct {
		name  string
		fe    geom.Edge
		te    geom.Edge
		align geom.Alignment
		want  geom.Point
	}{
		{"below leading", geom.EdgeTop, geom.EdgeBottom, geom.AlignLeading, geom.Point{X: 100, Y: 210}},
		{"above trailing", geom.EdgeBottom, geom.EdgeTop, geom.AlignTrailing, geom.Point{X: 250, Y: 50}},
		{"right center", geom.EdgeLeft, geom.EdgeRight, geom.AlignCenter, geom.Point{X: 310, Y: 130}},
		{"left leading", geom.EdgeRight, geom.EdgeLeft, geom.AlignLeading, geom.Point{X: 40, Y: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Binding{FollowerEdge: tt.fe, TargetEdge: tt.te, Alignment: tt.align, Gap: 10}
			assert.Equal(t, tt.want, Position(follower, target, b))
		})
	}
}

func TestBindValidation(t *testing.T) {
	e, _, _ := setup(map[string]geom.Rect{
		"a": {Width: 10, Height: 10},
		"b": {Width: 10, Height: 10},
		"c": {Width: 10, Height: 10},
	})
	below := func(f, t string) Binding {
		return Binding{Follower: f, Target: t, FollowerEdge: geom.EdgeTop, TargetEdge: geom.EdgeBottom}
	}

	assert.Equal(t, protocol.CodeInvalidParams, protocol.CodeOf(e.Bind(below("a", "a"))))
	assert.Equal(t, protocol.CodeInvalidParams, protocol.CodeOf(e.Bind(Binding{
		Follower: "a", Target: "b", FollowerEdge: geom.EdgeTop, TargetEdge: geom.EdgeTop,
	})))
	assert.Equal(t, protocol.CodeTargetNotFound, protocol.CodeOf(e.Bind(below("a", "zz"))))
	assert.Equal(t, protocol.CodeNotFound, protocol.CodeOf(e.Bind(below("zz", "a"))))

	require.NoError(t, e.Bind(below("b", "a")))
	assert.Equal(t, protocol.CodeInvalidParams, protocol.CodeOf(e.Bind(below("a", "b"))), "two-cycle")

	require.NoError(t, e.Bind(below("c", "b")))
	assert.Equal(t, protocol.CodeInvalidParams, protocol.CodeOf(e.Bind(below("a", "c"))), "three-cycle")
}

func TestCascadeRepositionsChain(t *testing.T) {
	e, host, events := setup(map[string]geom.Rect{
		"a": {X: 0, Y: 0, Width: 100, Height: 100},
		"b": {X: 400, Y: 400, Width: 100, Height: 50},
		"c": {X: 800, Y: 800, Width: 100, Height: 20},
	})
	require.NoError(t, e.Bind(Binding{Follower: "b", Target: "a", FollowerEdge: geom.EdgeTop, TargetEdge: geom.EdgeBottom}))
	require.NoError(t, e.Bind(Binding{Follower: "c", Target: "b", FollowerEdge: geom.EdgeTop, TargetEdge: geom.EdgeBottom, Gap: 5}))
	assert.Equal(t, geom.Rect{X: 0, Y: 155, Width: 100, Height: 20}, host.frames["c"])
	assert.Equal(t, []string{"snapped", "snapped"}, names(*events))

	host.MoveTo("a", geom.Point{X: 50, Y: 10})
	assert.Equal(t, geom.Point{X: 50, Y: 110}, host.frames["b"].Origin())
	assert.Equal(t, geom.Point{X: 50, Y: 165}, host.frames["c"].Origin())
	assert.Zero(t, e.Distance("c"))

	host.frames["c"] = host.frames["c"].Moved(geom.Point{X: 53, Y: 169})
	assert.InDelta(t, 5.0, e.Distance("c"), 1e-9)
	require.NoError(t, e.ReSnap("c"))
	assert.Zero(t, e.Distance("c"))
	assert.Equal(t, protocol.CodeNotFound, protocol.CodeOf(e.ReSnap("a")))
}

func TestProximityHysteresis(t *testing.T) {
	target := geom.Rect{X: 0, Y: 0, Width: 200, Height: 100}
	e, _, events := setup(map[string]geom.Rect{
		"t": target,
		"d": {X: 0, Y: 300, Width: 200, Height: 50},
	})
	e.SetAutoSnap("t", AutoSnapConfig{AcceptsSnapOn: []geom.Edge{geom.EdgeBottom}})
	e.SetAutoSnap("d", AutoSnapConfig{CanSnapFrom: []geom.Edge{geom.EdgeTop}, ProximityThreshold: 30})

	e.DragBegan("d")
	e.DragMoved("d", geom.Rect{X: 0, Y: 120, Width: 200, Height: 50})
	e.DragMoved("d", geom.Rect{X: 0, Y: 110, Width: 200, Height: 50})
	e.DragMoved("d", geom.Rect{X: 0, Y: 200, Width: 200, Height: 50})

	require.Len(t, *events, 3)
	assert.Equal(t, []string{"proximityEntered", "proximityUpdated", "proximityExited"}, names(*events))
	assert.Equal(t, map[string]any{"targetId": "t", "draggedEdge": "top", "targetEdge": "bottom", "distance": 20.0}, (*events)[0].data)
	assert.Equal(t, 10.0, (*events)[1].data["distance"])
	assert.Equal(t, "d", (*events)[2].window)
	_, ok := e.Proximity()
	assert.False(t, ok)
}

func TestProximityRequiresOverlapAndVisibility(t *testing.T) {
	e, host, events := setup(map[string]geom.Rect{
		"t": {X: 0, Y: 0, Width: 200, Height: 100},
		"d": {X: 0, Y: 300, Width: 200, Height: 50},
	})
	e.SetAutoSnap("t", AutoSnapConfig{AcceptsSnapOn: []geom.Edge{geom.EdgeBottom}})
	e.SetAutoSnap("d", AutoSnapConfig{CanSnapFrom: []geom.Edge{geom.EdgeTop}})

	e.DragMoved("d", geom.Rect{X: 200, Y: 110, Width: 200, Height: 50})
	host.hidden["t"] = true
	e.DragMoved("d", geom.Rect{X: 0, Y: 110, Width: 200, Height: 50})
	assert.Empty(t, *events)
}

func TestDragEndedCreatesBinding(t *testing.T) {
	e, host, events := setup(map[string]geom.Rect{
		"t": {X: 0, Y: 0, Width: 200, Height: 100},
		"d": {X: 0, Y: 300, Width: 160, Height: 50},
	})
	e.SetAutoSnap("t", AutoSnapConfig{AcceptsSnapOn: []geom.Edge{geom.EdgeBottom}})
	e.SetAutoSnap("d", AutoSnapConfig{CanSnapFrom: []geom.Edge{geom.EdgeTop}})

	e.DragBegan("d")
	host.frames["d"] = geom.Rect{X: 10, Y: 120, Width: 160, Height: 50}
	e.DragMoved("d", host.frames["d"])
	e.DragEnded("d", host.frames["d"])

	b, ok := e.Binding("d")
	require.True(t, ok)
	assert.Equal(t, "t", b.Target)
	assert.Equal(t, 4.0, b.Gap)
	assert.Equal(t, geom.AlignCenter, b.Alignment)
	assert.Equal(t, geom.Point{X: 20, Y: 104}, host.frames["d"].Origin())
	assert.Equal(t, []string{"proximityEntered", "snapped"}, names(*events))

	*events = nil
	e.DragBegan("d")
	assert.Equal(t, []string{"detached"}, names(*events))
	_, ok = e.Binding("d")
	assert.False(t, ok)
}

func TestDragEndedRefusesTargetBoundSinceLastMove(t *testing.T) {
	e, host, events := setup(map[string]geom.Rect{
		"t": {X: 0, Y: 0, Width: 200, Height: 100},
		"d": {X: 0, Y: 300, Width: 160, Height: 50},
	})
	e.SetAutoSnap("t", AutoSnapConfig{AcceptsSnapOn: []geom.Edge{geom.EdgeBottom}})
	e.SetAutoSnap("d", AutoSnapConfig{CanSnapFrom: []geom.Edge{geom.EdgeTop}})

	e.DragBegan("d")
	host.frames["d"] = geom.Rect{X: 10, Y: 120, Width: 160, Height: 50}
	e.DragMoved("d", host.frames["d"])
	require.Equal(t, []string{"proximityEntered"}, names(*events))

	require.NoError(t, e.Bind(Binding{Follower: "t", Target: "d", FollowerEdge: geom.EdgeBottom, TargetEdge: geom.EdgeTop}))
	*events = nil
	e.DragEnded("d", host.frames["d"])

	_, ok := e.Binding("d")
	assert.False(t, ok, "d must not follow its own follower")
	b, ok := e.Binding("t")
	require.True(t, ok)
	assert.Equal(t, "d", b.Target)
	assert.Equal(t, []string{"proximityExited"}, names(*events))
}

func TestProximitySkipsCyclicCandidates(t *testing.T) {
	e, _, events := setup(map[string]geom.Rect{
		"t": {X: 0, Y: 0, Width: 200, Height: 100},
		"d": {X: 0, Y: 300, Width: 200, Height: 50},
	})
	require.NoError(t, e.Bind(Binding{Follower: "t", Target: "d", FollowerEdge: geom.EdgeBottom, TargetEdge: geom.EdgeTop}))
	*events = nil
	e.SetAutoSnap("t", AutoSnapConfig{AcceptsSnapOn: []geom.Edge{geom.EdgeBottom}})
	e.SetAutoSnap("d", AutoSnapConfig{CanSnapFrom: []geom.Edge{geom.EdgeTop}})

	e.DragMoved("d", geom.Rect{X: 0, Y: 110, Width: 200, Height: 50})
	assert.Empty(t, *events)
}

func TestTargetDestroyedHidesFollowers(t *testing.T) {
	e, host, events := setup(map[string]geom.Rect{
		"t":  {Width: 100, Height: 100},
		"f1": {Width: 10, Height: 10},
		"f2": {Width: 10, Height: 10},
	})
	for _, f := range []string{"f1", "f2"} {
		require.NoError(t, e.Bind(Binding{
			Follower: f, Target: "t", FollowerEdge: geom.EdgeTop, TargetEdge: geom.EdgeBottom,
			OnTargetHidden: HideFollower, OnTargetDestroyed: HideFollower,
		}))
	}
	*events = nil

	delete(host.frames, "t")
	e.OnWindowDestroyed("t")

	assert.Equal(t, []string{"f1", "f2"}, host.hideLog)
	assert.Empty(t, e.Bindings())
	assert.Equal(t, []string{"detached", "detached"}, names(*events))
}

func TestTargetHiddenPolicies(t *testing.T) {
	e, host, _ := setup(map[string]geom.Rect{
		"t":     {Width: 100, Height: 100},
		"hide":  {Width: 10, Height: 10},
		"drop":  {Width: 10, Height: 10},
		"leave": {Width: 10, Height: 10},
	})
	policies := map[string]Policy{"hide": HideFollower, "drop": HideAndDetach, "leave": Leave}
	for f, p := range policies {
		require.NoError(t, e.Bind(Binding{
			Follower: f, Target: "t", FollowerEdge: geom.EdgeLeft, TargetEdge: geom.EdgeRight, OnTargetHidden: p,
		}))
	}

	host.Hide("t")

	assert.True(t, host.hidden["hide"])
	assert.True(t, host.hidden["drop"])
	assert.False(t, host.hidden["leave"])
	_, ok := e.Binding("hide")
	assert.True(t, ok)
	_, ok = e.Binding("drop")
	assert.False(t, ok)
	_, ok = e.Binding("leave")
	assert.True(t, ok)
}

func TestSetAutoSnapEmptyRemoves(t *testing.T) {
	e, _, _ := setup(map[string]geom.Rect{})
	e.SetAutoSnap("a", AutoSnapConfig{CanSnapFrom: []geom.Edge{geom.EdgeTop}})
	cfg, ok := e.AutoSnap("a")
	require.True(t, ok)
	assert.Equal(t, 50.0, cfg.ProximityThreshold)

	e.SetAutoSnap("a", AutoSnapConfig{})
	_, ok = e.AutoSnap("a")
	assert.False(t, ok)
}

func TestPrune(t *testing.T) {
	e, host, _ := setup(map[string]geom.Rect{
		"t": {Width: 100, Height: 100},
		"f": {Width: 10, Height: 10},
	})
	require.NoError(t, e.Bind(Binding{Follower: "f", Target: "t", FollowerEdge: geom.EdgeTop, TargetEdge: geom.EdgeBottom}))
	delete(host.frames, "t")
	n := e.Prune(func(id string) bool { _, ok := host.frames[id]; return ok })
	assert.Equal(t, 1, n)
	assert.Empty(t, e.Bindings())
}
