package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/protocol"
)

func newRegistry(t *testing.T, ids ...string) *Registry {
	t.Helper()
	r := New()
	for _, id := range ids {
		require.NoError(t, r.Add(NewWindow(id, Options{Frame: geom.Rect{Width: 10, Height: 10}}, time.Time{})))
	}
	return r
}

func order(r *Registry) []string {
	var ids []string
	for _, w := range r.Stack() {
		ids = append(ids, w.ID)
	}
	return ids
}

func TestAdd_RejectsDuplicateAndEmptyIDs(t *testing.T) {
	r := newRegistry(t, "a")

	err := r.Add(NewWindow("a", Options{}, time.Time{}))
	assert.True(t, errors.Is(err, protocol.AlreadyExists("a")))

	err = r.Add(NewWindow("", Options{}, time.Time{}))
	assert.True(t, errors.Is(err, protocol.MissingID()))
	assert.Equal(t, 1, r.Len())
}

func TestLookup(t *testing.T) {
	r := newRegistry(t, "a")

	_, err := r.Lookup("")
	assert.True(t, errors.Is(err, protocol.MissingID()))
	_, err = r.Lookup("zz")
	assert.True(t, errors.Is(err, protocol.NotFound("zz")))

	w, err := r.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "a", w.ID)
}

func TestStackMoves(t *testing.T) {
	r := newRegistry(t, "a", "b", "c", "d")
	assert.Equal(t, []string{"a", "b", "c", "d"}, order(r))

	r.BringToFront("a")
	assert.Equal(t, []string{"b", "c", "d", "a"}, order(r))

	r.SendToBack("d")
	assert.Equal(t, []string{"d", "b", "c", "a"}, order(r))

	r.MoveAbove("d", "c")
	assert.Equal(t, []string{"b", "c", "d", "a"}, order(r))

	r.MoveBelow("a", "b")
	assert.Equal(t, []string{"a", "b", "c", "d"}, order(r))

	r.SetIndex("a", 99)
	assert.Equal(t, 3, r.Index("a"))
	r.SetIndex("a", -5)
	assert.Equal(t, 0, r.Index("a"))

	r.MoveAbove("a", "missing")
	assert.Equal(t, []string{"a", "b", "c", "d"}, order(r))
	assert.Equal(t, -1, r.Index("missing"))
}

func TestLevelsStayOrdered(t *testing.T) {
	r := newRegistry(t, "a", "b", "c")

	pinned, _ := r.Get("a")
	pinned.Level = platform.LevelAboveNormal
	r.Relevel()
	assert.Equal(t, []string{"b", "c", "a"}, order(r))

	r.SendToBack("a")
	assert.Equal(t, []string{"b", "c", "a"}, order(r), "a pinned window never drops below normal windows")

	r.BringToFront("b")
	assert.Equal(t, []string{"c", "b", "a"}, order(r))

	require.NoError(t, r.Add(NewWindow("d", Options{}, time.Time{})))
	assert.Equal(t, []string{"c", "b", "d", "a"}, order(r), "new windows join the top of their own level")
}

func TestRemove(t *testing.T) {
	r := newRegistry(t, "a", "b")

	w, ok := r.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", w.ID)
	assert.Equal(t, []string{"b"}, order(r))

	_, ok = r.Remove("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, r.IDs())
}

func TestNewWindowClampsSizeAndOpacity(t *testing.T) {
	w := NewWindow("a", Options{
		Frame:   geom.Rect{Width: 500, Height: 5},
		Limits:  geom.Limits{MinWidth: 50, MinHeight: 20, MaxWidth: 300},
		Opacity: 1.4,
	}, time.Time{})

	assert.Equal(t, 300.0, w.Frame.Width)
	assert.Equal(t, 20.0, w.Frame.Height)
	assert.Equal(t, 1.0, w.Opacity)
	assert.Equal(t, StateCreated, w.State)
	assert.Equal(t, geom.Identity(), w.Transform)

	w.SetLimits(geom.Limits{MaxWidth: 100})
	assert.Equal(t, 100.0, w.Frame.Width)
	assert.Equal(t, 0.0, w.SetOpacity(-1))
}

func TestParseEnums(t *testing.T) {
	p, err := ParseFocusPolicy("never")
	require.NoError(t, err)
	assert.Equal(t, FocusNever, p)
	_, err = ParseFocusPolicy("sometimes")
	assert.Error(t, err)

	l, err := ParseLevel("aboveAll")
	require.NoError(t, err)
	assert.Equal(t, platform.LevelAboveAll, l)
	_, err = ParseLevel("basement")
	assert.Error(t, err)
}
