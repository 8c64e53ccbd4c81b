package platform

import (
	"fmt"
	"sync"
)

// MemorySurface is the recorded state of a headless surface.
type MemorySurface struct {
	ID            SurfaceID
	Bounds        Rect
	ContentWidth  int
	ContentHeight int
	Visible       bool
	Opacity       float64
	NonActivating bool
	Level         Level
	Cursor        Cursor
	Passthrough   bool
}

// MemoryBackend is a headless Backend that records surface state in memory.
// It backs `palettekit daemon --headless` and the engine tests, which drive
// input through PressKey and SendPointer.
type MemoryBackend struct {
	mu sync.Mutex

	displays []Display
	surfaces map[SurfaceID]*MemorySurface
	order    []SurfaceID
	nextID   SurfaceID
	focused  SurfaceID

	cursorX, cursorY int

	keyHook      KeyHook
	pointerHook  PointerHook
	captureID    SurfaceID
	captureHook  PointerHook
	keyInstalls  int
	ptrInstalls  int
	failSurfaces bool
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns a backend with a single 1920x1080 display at
// scale 1.
func NewMemoryBackend() *MemoryBackend {
	bounds := Rect{Width: 1920, Height: 1080}
	return &MemoryBackend{
		displays: []Display{{ID: 0, Name: "headless-0", Bounds: bounds, Usable: bounds, Scale: 1}},
		surfaces: make(map[SurfaceID]*MemorySurface),
		nextID:   1,
	}
}

// SetDisplays replaces the simulated display layout.
func (m *MemoryBackend) SetDisplays(displays []Display) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displays = append([]Display(nil), displays...)
}

// FailSurfaceCreation makes CreateSurface return an error.
func (m *MemoryBackend) FailSurfaceCreation(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSurfaces = fail
}

func (m *MemoryBackend) Displays() ([]Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Display(nil), m.displays...), nil
}

func (m *MemoryBackend) CreateSurface(bounds Rect) (SurfaceID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSurfaces {
		return 0, fmt.Errorf("surface creation disabled")
	}
	id := m.nextID
	m.nextID++
	m.surfaces[id] = &MemorySurface{
		ID:            id,
		Bounds:        bounds,
		ContentWidth:  bounds.Width,
		ContentHeight: bounds.Height,
		Opacity:       1,
		NonActivating: true,
	}
	m.order = append(m.order, id)
	return id, nil
}

func (m *MemoryBackend) DestroySurface(id SurfaceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surfaces[id]; !ok {
		return nil
	}
	delete(m.surfaces, id)
	m.order = removeSurface(m.order, id)
	if m.focused == id {
		m.focused = 0
	}
	if m.captureID == id {
		m.captureID = 0
		m.captureHook = nil
	}
	return nil
}

// Vanish drops a surface without going through DestroySurface, the way an
// external process or crash would.
func (m *MemoryBackend) Vanish(id SurfaceID) {
	_ = m.DestroySurface(id)
}

func (m *MemoryBackend) SurfaceExists(id SurfaceID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.surfaces[id]
	return ok
}

// Surface returns a copy of the surface state.
func (m *MemoryBackend) Surface(id SurfaceID) (MemorySurface, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surfaces[id]
	if !ok {
		return MemorySurface{}, false
	}
	return *s, true
}

func (m *MemoryBackend) with(id SurfaceID, fn func(s *MemorySurface)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surfaces[id]
	if !ok {
		return ErrUnknownSurface{ID: id}
	}
	fn(s)
	return nil
}

func (m *MemoryBackend) SetBounds(id SurfaceID, bounds Rect) error {
	return m.with(id, func(s *MemorySurface) { s.Bounds = bounds })
}

func (m *MemoryBackend) ResizeContent(id SurfaceID, width, height int) error {
	return m.with(id, func(s *MemorySurface) {
		s.ContentWidth = width
		s.ContentHeight = height
	})
}

func (m *MemoryBackend) SetVisible(id SurfaceID, visible bool) error {
	return m.with(id, func(s *MemorySurface) { s.Visible = visible })
}

func (m *MemoryBackend) SetOpacity(id SurfaceID, opacity float64) error {
	return m.with(id, func(s *MemorySurface) { s.Opacity = opacity })
}

func (m *MemoryBackend) SetNonActivating(id SurfaceID, nonActivating bool) error {
	return m.with(id, func(s *MemorySurface) { s.NonActivating = nonActivating })
}

func (m *MemoryBackend) Focus(id SurfaceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surfaces[id]; !ok {
		return ErrUnknownSurface{ID: id}
	}
	m.focused = id
	return nil
}

// Focused returns the surface holding keyboard focus, or 0.
func (m *MemoryBackend) Focused() SurfaceID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

func (m *MemoryBackend) Restack(id, sibling SurfaceID, above bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surfaces[id]; !ok {
		return ErrUnknownSurface{ID: id}
	}
	order := removeSurface(m.order, id)
	at := len(order)
	if !above {
		at = 0
	}
	if sibling != 0 {
		for i, s := range order {
			if s == sibling {
				at = i
				if above {
					at = i + 1
				}
				break
			}
		}
	}
	order = append(order, 0)
	copy(order[at+1:], order[at:])
	order[at] = id
	m.order = order
	return nil
}

// Order returns surfaces from bottom to top.
func (m *MemoryBackend) Order() []SurfaceID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SurfaceID(nil), m.order...)
}

func (m *MemoryBackend) SetLevel(id SurfaceID, level Level) error {
	return m.with(id, func(s *MemorySurface) { s.Level = level })
}

func (m *MemoryBackend) SetCursor(id SurfaceID, cursor Cursor) error {
	return m.with(id, func(s *MemorySurface) { s.Cursor = cursor })
}

func (m *MemoryBackend) SetPassthrough(id SurfaceID, passthrough bool) error {
	return m.with(id, func(s *MemorySurface) { s.Passthrough = passthrough })
}

func (m *MemoryBackend) ScaleFactor(id SurfaceID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surfaces[id]
	if !ok {
		return ScaleForPoint(m.displays, 0, 0)
	}
	return ScaleForPoint(m.displays, s.Bounds.X+s.Bounds.Width/2, s.Bounds.Y+s.Bounds.Height/2)
}

func (m *MemoryBackend) ScaleFactorAt(x, y int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ScaleForPoint(m.displays, x, y)
}

func (m *MemoryBackend) LogicalScaleFactorAt(x, y float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ScaleForLogical(m.displays, x, y)
}

func (m *MemoryBackend) CursorPosition() (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursorX, m.cursorY, nil
}

// SetCursorPosition moves the simulated pointer without emitting events.
func (m *MemoryBackend) SetCursorPosition(x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursorX, m.cursorY = x, y
}

func (m *MemoryBackend) CapturePointer(id SurfaceID, hook PointerHook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surfaces[id]; !ok {
		return ErrUnknownSurface{ID: id}
	}
	m.captureID = id
	m.captureHook = hook
	return nil
}

func (m *MemoryBackend) ReleasePointer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captureID = 0
	m.captureHook = nil
	return nil
}

// Captured returns the surface holding the pointer capture, or 0.
func (m *MemoryBackend) Captured() SurfaceID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captureID
}

func (m *MemoryBackend) InstallKeyHook(hook KeyHook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyHook = hook
	m.keyInstalls++
	return nil
}

func (m *MemoryBackend) RemoveKeyHook() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyHook = nil
	return nil
}

func (m *MemoryBackend) InstallPointerHook(hook PointerHook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointerHook = hook
	m.ptrInstalls++
	return nil
}

func (m *MemoryBackend) RemovePointerHook() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointerHook = nil
	return nil
}

// HooksInstalled reports whether the keyboard and pointer hooks are active.
func (m *MemoryBackend) HooksInstalled() (key, pointer bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keyHook != nil, m.pointerHook != nil
}

// HookInstalls reports how many times each hook was installed.
func (m *MemoryBackend) HookInstalls() (key, pointer int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keyInstalls, m.ptrInstalls
}

// PressKey delivers a key event to the keyboard hook and reports whether it
// was consumed. Without a hook every key passes through.
func (m *MemoryBackend) PressKey(ev KeyEvent) bool {
	m.mu.Lock()
	hook := m.keyHook
	m.mu.Unlock()
	if hook == nil {
		return false
	}
	return hook(ev)
}

// SendPointer delivers a pointer event to the active capture and to the
// pointer hook. Move and button events also update the cursor position.
func (m *MemoryBackend) SendPointer(ev PointerEvent) {
	m.mu.Lock()
	if ev.Kind != PointerCaptureLost {
		m.cursorX, m.cursorY = ev.X, ev.Y
	}
	capture := m.captureHook
	hook := m.pointerHook
	m.mu.Unlock()

	if capture != nil {
		capture(ev)
	}
	if hook != nil && ev.Kind != PointerCaptureLost {
		hook(ev)
	}
}

// LoseCapture simulates the OS revoking the pointer capture.
func (m *MemoryBackend) LoseCapture() {
	m.mu.Lock()
	capture := m.captureHook
	m.captureID = 0
	m.captureHook = nil
	m.mu.Unlock()
	if capture != nil {
		capture(PointerEvent{Kind: PointerCaptureLost})
	}
}

func removeSurface(ids []SurfaceID, id SurfaceID) []SurfaceID {
	out := make([]SurfaceID, 0, len(ids))
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
