package platform

import (
	"testing"

	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendRestack(t *testing.T) {
	m := NewMemoryBackend()
	a, _ := m.CreateSurface(Rect{Width: 10, Height: 10})
	b, _ := m.CreateSurface(Rect{Width: 10, Height: 10})
	c, _ := m.CreateSurface(Rect{Width: 10, Height: 10})
	assert.Equal(t, []SurfaceID{a, b, c}, m.Order())

	require.NoError(t, m.Restack(a, 0, true))
	assert.Equal(t, []SurfaceID{b, c, a}, m.Order())

	require.NoError(t, m.Restack(a, b, false))
	assert.Equal(t, []SurfaceID{a, b, c}, m.Order())

	require.NoError(t, m.Restack(a, b, true))
	assert.Equal(t, []SurfaceID{b, a, c}, m.Order())
}

func TestMemoryBackendScaleFactor(t *testing.T) {
	m := NewMemoryBackend()
	m.SetDisplays([]Display{
		{ID: 0, Bounds: Rect{Width: 1920, Height: 1080}, Scale: 1},
		{ID: 1, Bounds: Rect{X: 1920, Width: 3840, Height: 2160}, Scale: 2},
	})
	id, err := m.CreateSurface(Rect{X: 2000, Y: 100, Width: 200, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, 2.0, m.ScaleFactor(id))
	assert.Equal(t, 1.0, m.ScaleFactorAt(10, 10))
	assert.Equal(t, 1.0, m.ScaleFactor(999))
}

func TestScaleForLogical(t *testing.T) {
	displays := []Display{
		{Bounds: Rect{Width: 1000, Height: 1000}, Scale: 1},
		{Bounds: Rect{X: 2000, Width: 2000, Height: 2000}, Scale: 2},
	}
	assert.Equal(t, 2.0, ScaleForLogical(displays, 1550, 150))
	assert.Equal(t, 1.0, ScaleForLogical(displays, 500, 500))
	assert.Equal(t, 1.0, ScaleForLogical(displays, -50, -50), "off-screen points use the first display")
	assert.Equal(t, 1.0, ScaleForLogical(nil, 10, 10))

	m := NewMemoryBackend()
	m.SetDisplays(displays)
	assert.Equal(t, 2.0, m.LogicalScaleFactorAt(1550, 150))
}

func TestMemoryBackendCaptureAndHooks(t *testing.T) {
	m := NewMemoryBackend()
	id, _ := m.CreateSurface(Rect{Width: 10, Height: 10})

	assert.False(t, m.PressKey(KeyEvent{Code: 1, Down: true}))

	var captured, observed []PointerKind
	require.NoError(t, m.CapturePointer(id, func(ev PointerEvent) { captured = append(captured, ev.Kind) }))
	require.NoError(t, m.InstallPointerHook(func(ev PointerEvent) { observed = append(observed, ev.Kind) }))

	m.SendPointer(PointerEvent{Kind: PointerMove, X: 5, Y: 6})
	m.LoseCapture()
	m.SendPointer(PointerEvent{Kind: PointerUp})

	assert.Equal(t, []PointerKind{PointerMove, PointerCaptureLost}, captured)
	assert.Equal(t, []PointerKind{PointerMove, PointerUp}, observed)
	assert.Zero(t, m.Captured())
}

func TestConversions(t *testing.T) {
	r := geom.Rect{X: 10.4, Y: 20, Width: 100, Height: 50.5}
	phys := ToPhysical(r, 2)
	assert.Equal(t, Rect{X: 21, Y: 40, Width: 200, Height: 101}, phys)
	assert.Equal(t, geom.Rect{X: 10.5, Y: 20, Width: 100, Height: 50.5}, ToLogical(phys, 2))
	assert.Equal(t, geom.Point{X: 5, Y: 3}, PointToLogical(10, 6, 2))
}

func TestParseCursor(t *testing.T) {
	c, err := ParseCursor("pointingHand")
	require.NoError(t, err)
	assert.Equal(t, CursorHand, c)
	_, err = ParseCursor("spinner")
	assert.Error(t, err)
}
