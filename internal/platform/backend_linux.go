//go:build linux

package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/palettekit/internal/x11"
)

const (
	displayCacheTTL     = 2 * time.Second
	defaultPollInterval = 16 * time.Millisecond
)

var cursorGlyphs = map[Cursor]uint16{
	CursorArrow:           x11.GlyphLeftPtr,
	CursorText:            x11.GlyphXterm,
	CursorCrosshair:       x11.GlyphCrosshair,
	CursorHand:            x11.GlyphHand2,
	CursorResizeLeftRight: x11.GlyphSbHDoubleArrow,
	CursorResizeUpDown:    x11.GlyphSbVDoubleArrow,
	CursorMove:            x11.GlyphFleur,
	CursorWait:            x11.GlyphWatch,
	CursorHelp:            x11.GlyphQuestionArrow,
	CursorForbidden:       x11.GlyphCircle,
}

type linuxSurface struct {
	win    xproto.Window
	bounds Rect
	level  Level
}

// LinuxBackend drives palette surfaces as override-redirect X11 windows.
type LinuxBackend struct {
	conn *x11.Connection

	mu        sync.Mutex
	surfaces  map[SurfaceID]*linuxSurface
	displays  []Display
	refreshed time.Time

	captureWin  xproto.Window
	captureHook PointerHook

	keyHook      KeyHook
	pointerHook  PointerHook
	pointerStop  chan struct{}
	pollInterval time.Duration
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{
		conn:         conn,
		surfaces:     make(map[SurfaceID]*linuxSurface),
		pollInterval: defaultPollInterval,
	}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display, or
// $DISPLAY when empty.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// Run processes X11 events until ctx is cancelled.
func (b *LinuxBackend) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.conn.EventLoop()
	}()
	select {
	case <-ctx.Done():
		b.conn.Quit()
		<-done
		return nil
	case <-done:
		return fmt.Errorf("x11 event loop exited")
	}
}

// Close removes hooks, destroys every surface and disconnects.
func (b *LinuxBackend) Close() error {
	_ = b.RemoveKeyHook()
	_ = b.RemovePointerHook()
	_ = b.ReleasePointer()

	b.mu.Lock()
	wins := make([]xproto.Window, 0, len(b.surfaces))
	for _, s := range b.surfaces {
		wins = append(wins, s.win)
	}
	b.surfaces = make(map[SurfaceID]*linuxSurface)
	b.mu.Unlock()

	for _, win := range wins {
		_ = b.conn.DestroySurface(win)
	}
	b.conn.Close()
	return nil
}

func (b *LinuxBackend) Displays() ([]Display, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
			Usable: Rect{X: m.UsableX, Y: m.UsableY, Width: m.UsableWidth, Height: m.UsableHeight},
			Scale:  m.Scale(),
		})
	}

	b.mu.Lock()
	b.displays = displays
	b.refreshed = time.Now()
	b.mu.Unlock()
	return displays, nil
}

// cachedDisplays avoids a RandR round trip on every scale lookup.
func (b *LinuxBackend) cachedDisplays() []Display {
	b.mu.Lock()
	displays, fresh := b.displays, time.Since(b.refreshed) < displayCacheTTL
	b.mu.Unlock()
	if fresh && displays != nil {
		return displays
	}
	if refreshed, err := b.Displays(); err == nil {
		return refreshed
	}
	return displays
}

func (b *LinuxBackend) CreateSurface(bounds Rect) (SurfaceID, error) {
	win, err := b.conn.CreateSurface(bounds.X, bounds.Y, bounds.Width, bounds.Height)
	if err != nil {
		return 0, err
	}
	// Palettes start non-activating.
	_ = b.conn.SetAcceptsFocus(win, false)

	id := SurfaceID(win)
	b.mu.Lock()
	b.surfaces[id] = &linuxSurface{win: win, bounds: bounds}
	b.mu.Unlock()
	return id, nil
}

func (b *LinuxBackend) lookup(id SurfaceID) (*linuxSurface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.surfaces[id]
	if !ok {
		return nil, ErrUnknownSurface{ID: id}
	}
	return s, nil
}

func (b *LinuxBackend) DestroySurface(id SurfaceID) error {
	b.mu.Lock()
	s, ok := b.surfaces[id]
	delete(b.surfaces, id)
	captured := ok && b.captureWin == s.win
	b.mu.Unlock()
	if !ok {
		return nil
	}
	if captured {
		_ = b.ReleasePointer()
	}
	return b.conn.DestroySurface(s.win)
}

func (b *LinuxBackend) SurfaceExists(id SurfaceID) bool {
	s, err := b.lookup(id)
	if err != nil {
		return false
	}
	return b.conn.SurfaceAlive(s.win)
}

func (b *LinuxBackend) SetBounds(id SurfaceID, bounds Rect) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	if err := b.conn.ConfigureSurface(s.win, bounds.X, bounds.Y, bounds.Width, bounds.Height); err != nil {
		return err
	}
	b.mu.Lock()
	s.bounds = bounds
	b.mu.Unlock()
	return nil
}

// ResizeContent is a no-op: content renders into the surface window itself.
func (b *LinuxBackend) ResizeContent(id SurfaceID, width, height int) error {
	_, err := b.lookup(id)
	return err
}

func (b *LinuxBackend) SetVisible(id SurfaceID, visible bool) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	return b.conn.MapSurface(s.win, visible)
}

func (b *LinuxBackend) SetOpacity(id SurfaceID, opacity float64) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	return b.conn.SetSurfaceOpacity(s.win, opacity)
}

func (b *LinuxBackend) SetNonActivating(id SurfaceID, nonActivating bool) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	return b.conn.SetAcceptsFocus(s.win, !nonActivating)
}

func (b *LinuxBackend) Focus(id SurfaceID) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	return b.conn.FocusSurface(s.win)
}

// Restack applies one step of a bottom-to-top pass. The bottom palette is
// raised above every other client and each later one goes above its
// sibling, so palettes always float over regular windows.
func (b *LinuxBackend) Restack(id, sibling SurfaceID, above bool) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	if sibling == 0 {
		return b.conn.StackAbove(s.win, 0)
	}
	other, err := b.lookup(sibling)
	if err != nil {
		return err
	}
	if above {
		return b.conn.StackAbove(s.win, other.win)
	}
	return b.conn.StackBelow(s.win, other.win)
}

// SetLevel records the level. Band ordering among palettes is enforced by
// the restack pass and every band sits above managed windows.
func (b *LinuxBackend) SetLevel(id SurfaceID, level Level) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	b.mu.Lock()
	s.level = level
	b.mu.Unlock()
	return nil
}

func (b *LinuxBackend) SetCursor(id SurfaceID, cursor Cursor) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	glyph, ok := cursorGlyphs[cursor]
	if !ok {
		glyph = x11.GlyphLeftPtr
	}
	return b.conn.SetSurfaceCursor(s.win, glyph)
}

func (b *LinuxBackend) SetPassthrough(id SurfaceID, passthrough bool) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	return b.conn.SetInputPassthrough(s.win, passthrough)
}

func (b *LinuxBackend) ScaleFactor(id SurfaceID) float64 {
	s, err := b.lookup(id)
	if err != nil {
		return 1
	}
	b.mu.Lock()
	r := s.bounds
	b.mu.Unlock()
	return ScaleForPoint(b.cachedDisplays(), r.X+r.Width/2, r.Y+r.Height/2)
}

func (b *LinuxBackend) ScaleFactorAt(x, y int) float64 {
	return ScaleForPoint(b.cachedDisplays(), x, y)
}

func (b *LinuxBackend) LogicalScaleFactorAt(x, y float64) float64 {
	return ScaleForLogical(b.cachedDisplays(), x, y)
}

func (b *LinuxBackend) CursorPosition() (int, int, error) {
	return b.conn.PointerPosition()
}

func (b *LinuxBackend) CapturePointer(id SurfaceID, hook PointerHook) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	_ = b.ReleasePointer()

	err = b.conn.GrabPointer(s.win, func(t x11.PointerTransition) {
		b.mu.Lock()
		active := b.captureWin == s.win
		capture := b.captureHook
		if t.Lost && active {
			b.captureWin = 0
			b.captureHook = nil
		}
		b.mu.Unlock()
		if !active || capture == nil {
			return
		}
		capture(pointerEventFrom(t))
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.captureWin = s.win
	b.captureHook = hook
	b.mu.Unlock()
	return nil
}

func pointerEventFrom(t x11.PointerTransition) PointerEvent {
	switch {
	case t.Lost:
		return PointerEvent{Kind: PointerCaptureLost, X: t.X, Y: t.Y}
	case t.Release:
		return PointerEvent{Kind: PointerUp, X: t.X, Y: t.Y, Button: t.Button}
	}
	return PointerEvent{Kind: PointerMove, X: t.X, Y: t.Y}
}

func (b *LinuxBackend) ReleasePointer() error {
	b.mu.Lock()
	win := b.captureWin
	b.captureWin = 0
	b.captureHook = nil
	b.mu.Unlock()
	if win != 0 {
		b.conn.UngrabPointer(win)
	}
	return nil
}

func (b *LinuxBackend) InstallKeyHook(hook KeyHook) error {
	b.mu.Lock()
	installed := b.keyHook != nil
	b.keyHook = hook
	b.mu.Unlock()
	if installed {
		return nil
	}

	err := b.conn.GrabKeyboard(func(t x11.KeyTransition) bool {
		b.mu.Lock()
		h := b.keyHook
		b.mu.Unlock()
		if h == nil {
			return false
		}
		return h(keyEventFrom(t))
	})
	if err != nil {
		b.mu.Lock()
		b.keyHook = nil
		b.mu.Unlock()
	}
	return err
}

func keyEventFrom(t x11.KeyTransition) KeyEvent {
	masks := x11.ModifierMasks(t.State)
	mods := make([]int64, 0, len(masks))
	for _, m := range masks {
		mods = append(mods, int64(m))
	}
	return KeyEvent{
		Code:      uint32(t.Keycode),
		KeyID:     int64(t.Keysym),
		Down:      t.Down,
		Modifiers: mods,
	}
}

func (b *LinuxBackend) RemoveKeyHook() error {
	b.mu.Lock()
	installed := b.keyHook != nil
	b.keyHook = nil
	b.mu.Unlock()
	if installed {
		b.conn.UngrabKeyboard()
	}
	return nil
}

// InstallPointerHook samples the pointer on a fixed interval. X11 offers no
// global motion stream without grabbing, and a passive grab would steal
// clicks from other clients.
func (b *LinuxBackend) InstallPointerHook(hook PointerHook) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pointerHook = hook
	if b.pointerStop != nil {
		return nil
	}
	stop := make(chan struct{})
	b.pointerStop = stop
	go b.pollPointer(stop)
	return nil
}

func (b *LinuxBackend) pollPointer(stop <-chan struct{}) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	lastX, lastY, lastButtons, err := b.conn.PointerState()
	if err != nil {
		lastX, lastY = -1, -1
	}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		x, y, buttons, err := b.conn.PointerState()
		if err != nil {
			continue
		}
		b.mu.Lock()
		hook := b.pointerHook
		b.mu.Unlock()
		if hook == nil {
			continue
		}

		if x != lastX || y != lastY {
			hook(PointerEvent{Kind: PointerMove, X: x, Y: y})
		}
		down, up := x11.ButtonChanges(lastButtons, buttons)
		for _, btn := range down {
			hook(PointerEvent{Kind: PointerDown, X: x, Y: y, Button: btn})
		}
		for _, btn := range up {
			hook(PointerEvent{Kind: PointerUp, X: x, Y: y, Button: btn})
		}
		lastX, lastY, lastButtons = x, y, buttons
	}
}

func (b *LinuxBackend) RemovePointerHook() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pointerHook = nil
	if b.pointerStop != nil {
		close(b.pointerStop)
		b.pointerStop = nil
	}
	return nil
}
