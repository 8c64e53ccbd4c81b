package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xcursor"
)

// Glyph indices in the core X cursor font.
const (
	GlyphXCursor        uint16 = 0
	GlyphCircle         uint16 = 24
	GlyphCrosshair      uint16 = 34
	GlyphFleur          uint16 = 52
	GlyphHand2          uint16 = 60
	GlyphLeftPtr        uint16 = 68
	GlyphQuestionArrow  uint16 = 92
	GlyphSbHDoubleArrow uint16 = 108
	GlyphSbVDoubleArrow uint16 = 116
	GlyphWatch          uint16 = 150
	GlyphXterm          uint16 = 152
)

const surfaceEventMask = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskStructureNotify

var (
	cursorMu sync.Mutex
	cursors  = map[uint16]xproto.Cursor{}
)

// CreateSurface creates an unmapped override-redirect window. Palettes
// bypass the window manager so they never take part in its stacking or
// focus decisions.
func (c *Connection) CreateSurface(x, y, width, height int) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	// Values follow mask bit order: back_pixel, override_redirect, event_mask.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		int16(x), int16(y),
		clampDim(width), clampDim(height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{0, 1, surfaceEventMask},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}

	_ = ewmh.WmNameSet(c.XUtil, wid, "palettekit")
	_ = ewmh.WmWindowTypeSet(c.XUtil, wid, []string{"_NET_WM_WINDOW_TYPE_UTILITY"})
	return wid, nil
}

// ConfigureSurface moves and resizes win.
func (c *Connection) ConfigureSurface(win xproto.Window, x, y, width, height int) error {
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(),
		win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(int32(x)), uint32(int32(y)), uint32(clampDim(width)), uint32(clampDim(height))},
	).Check()
}

// MapSurface shows or hides win.
func (c *Connection) MapSurface(win xproto.Window, visible bool) error {
	if visible {
		return xproto.MapWindowChecked(c.XUtil.Conn(), win).Check()
	}
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), win).Check()
}

// DestroySurface destroys win. Windows already gone are not an error.
func (c *Connection) DestroySurface(win xproto.Window) error {
	if !c.SurfaceAlive(win) {
		return nil
	}
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), win).Check()
}

// SurfaceAlive reports whether the server still knows win.
func (c *Connection) SurfaceAlive(win xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	return err == nil
}

// SetSurfaceOpacity sets _NET_WM_WINDOW_OPACITY, which compositors honor.
func (c *Connection) SetSurfaceOpacity(win xproto.Window, opacity float64) error {
	if opacity >= 1 {
		return xproto.DeletePropertyChecked(c.XUtil.Conn(), win, c.atom("_NET_WM_WINDOW_OPACITY")).Check()
	}
	return ewmh.WmWindowOpacitySet(c.XUtil, win, opacity)
}

// SetAcceptsFocus sets the ICCCM input hint.
func (c *Connection) SetAcceptsFocus(win xproto.Window, accepts bool) error {
	hints := &icccm.Hints{Flags: icccm.HintInput}
	if accepts {
		hints.Input = 1
	}
	return icccm.WmHintsSet(c.XUtil, win, hints)
}

// FocusSurface gives win the keyboard focus.
func (c *Connection) FocusSurface(win xproto.Window) error {
	return xproto.SetInputFocusChecked(
		c.XUtil.Conn(),
		xproto.InputFocusPointerRoot,
		win,
		xproto.TimeCurrentTime,
	).Check()
}

// StackAbove places win directly above sibling, or on top of every window
// when sibling is zero.
func (c *Connection) StackAbove(win, sibling xproto.Window) error {
	if sibling == 0 {
		return xproto.ConfigureWindowChecked(
			c.XUtil.Conn(), win,
			xproto.ConfigWindowStackMode,
			[]uint32{xproto.StackModeAbove},
		).Check()
	}
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(), win,
		xproto.ConfigWindowSibling|xproto.ConfigWindowStackMode,
		[]uint32{uint32(sibling), xproto.StackModeAbove},
	).Check()
}

// StackBelow places win directly below sibling.
func (c *Connection) StackBelow(win, sibling xproto.Window) error {
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(), win,
		xproto.ConfigWindowSibling|xproto.ConfigWindowStackMode,
		[]uint32{uint32(sibling), xproto.StackModeBelow},
	).Check()
}

// SetSurfaceCursor assigns a cursor-font glyph to win.
func (c *Connection) SetSurfaceCursor(win xproto.Window, glyph uint16) error {
	cursor, err := c.cursor(glyph)
	if err != nil {
		return err
	}
	return xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(), win, xproto.CwCursor, []uint32{uint32(cursor)},
	).Check()
}

func (c *Connection) cursor(glyph uint16) (xproto.Cursor, error) {
	cursorMu.Lock()
	defer cursorMu.Unlock()
	if cur, ok := cursors[glyph]; ok {
		return cur, nil
	}
	cur, err := xcursor.CreateCursor(c.XUtil, glyph)
	if err != nil {
		return 0, fmt.Errorf("create cursor %d: %w", glyph, err)
	}
	cursors[glyph] = cur
	return cur, nil
}

// SetInputPassthrough empties the input region of win so clicks reach the
// windows beneath it. Requires the SHAPE extension.
func (c *Connection) SetInputPassthrough(win xproto.Window, passthrough bool) error {
	if !c.hasShape {
		return fmt.Errorf("shape extension unavailable")
	}
	conn := c.XUtil.Conn()
	if passthrough {
		return shape.RectanglesChecked(
			conn, shape.SoSet, shape.SkInput, xproto.ClipOrderingUnsorted,
			win, 0, 0, nil,
		).Check()
	}
	return shape.MaskChecked(conn, shape.SoSet, shape.SkInput, win, 0, 0, xproto.PixmapNone).Check()
}

func (c *Connection) atom(name string) xproto.Atom {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone
	}
	return reply.Atom
}

func clampDim(v int) uint16 {
	if v < 1 {
		return 1
	}
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}
