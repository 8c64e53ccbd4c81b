package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

const baseDPI = 96.0

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int

	// Usable area after dock struts or the EWMH work area.
	UsableX      int
	UsableY      int
	UsableWidth  int
	UsableHeight int

	// Physical size reported by the output, zero when unknown.
	MmWidth  uint32
	MmHeight uint32
}

// Scale returns the backing scale factor derived from the output DPI.
func (m Monitor) Scale() float64 {
	return scaleFromDPI(m.Width, m.MmWidth)
}

// scaleFromDPI rounds the pixel density to the nearest quarter step above
// 96 DPI. Outputs that report no physical size are treated as 1x.
func scaleFromDPI(widthPx int, widthMm uint32) float64 {
	if widthPx <= 0 || widthMm == 0 {
		return 1
	}
	dpi := float64(widthPx) / (float64(widthMm) / 25.4)
	scale := math.Round(dpi/baseDPI*4) / 4
	if scale < 1 {
		return 1
	}
	if scale > 4 {
		return 4
	}
	return scale
}

// GetMonitors retrieves all active monitors using XRandR, with usable areas
// resolved against dock struts.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if !c.hasRandr {
		return c.rootMonitor()
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		mon := Monitor{
			ID:     i,
			Name:   fmt.Sprintf("Monitor%d", i),
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			mon.Name = string(outputInfo.Name)
			mon.MmWidth = outputInfo.MmWidth
			mon.MmHeight = outputInfo.MmHeight
		}
		monitors = append(monitors, mon)
	}
	if len(monitors) == 0 {
		return c.rootMonitor()
	}

	c.applyUsableAreas(monitors)
	return monitors, nil
}

// rootMonitor treats the whole root window as one display.
func (c *Connection) rootMonitor() ([]Monitor, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	screen := c.XUtil.Screen()
	monitors := []Monitor{{
		Name:     "root",
		Width:    int(geom.Width),
		Height:   int(geom.Height),
		MmWidth:  uint32(screen.WidthInMillimeters),
		MmHeight: uint32(screen.HeightInMillimeters),
	}}
	c.applyUsableAreas(monitors)
	return monitors, nil
}

func (c *Connection) applyUsableAreas(monitors []Monitor) {
	for i := range monitors {
		m := &monitors[i]
		m.UsableX, m.UsableY, m.UsableWidth, m.UsableHeight = m.X, m.Y, m.Width, m.Height
	}

	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return
	}
	struts := c.dockStrutPartials(int(rootGeom.Width), int(rootGeom.Height))
	if len(struts) > 0 {
		for i := range monitors {
			var acc dockStruts
			for _, sp := range struts {
				updateStrutsForMonitor(&monitors[i], int(rootGeom.Width), int(rootGeom.Height), sp, &acc)
			}
			acc.apply(&monitors[i])
		}
		return
	}

	// No docks advertise struts; intersect with the desktop work area.
	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return
	}
	desktop := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(workArea) {
		desktop = int(current)
	}
	wa := workArea[desktop]
	for i := range monitors {
		clipToWorkArea(&monitors[i], int(wa.X), int(wa.Y), int(wa.Width), int(wa.Height))
	}
}

func clipToWorkArea(m *Monitor, waX, waY, waW, waH int) {
	x1 := max(m.X, waX)
	y1 := max(m.Y, waY)
	x2 := min(m.X+m.Width, waX+waW)
	y2 := min(m.Y+m.Height, waY+waH)
	if x2 > x1 && y2 > y1 {
		m.UsableX, m.UsableY = x1, y1
		m.UsableWidth, m.UsableHeight = x2-x1, y2-y1
	}
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

func (s dockStruts) apply(m *Monitor) {
	m.UsableX = m.X + s.left
	m.UsableY = m.Y + s.top
	m.UsableWidth = max(m.Width-(s.left+s.right), 1)
	m.UsableHeight = max(m.Height-(s.top+s.bottom), 1)
}

// dockStrutPartials collects the struts of every dock client. Docks that
// only set _NET_WM_STRUT are widened to span the root window.
func (c *Connection) dockStrutPartials(rootWidth, rootHeight int) []*ewmh.WmStrutPartial {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil
	}

	var out []*ewmh.WmStrutPartial
	for _, windowID := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
		if err != nil || !hasType(types, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			out = append(out, sp)
			continue
		}
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			out = append(out, &ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(rootHeight - 1),
				RightEndY:  uint(rootHeight - 1),
				TopEndX:    uint(rootWidth - 1),
				BottomEndX: uint(rootWidth - 1),
			})
		}
	}
	return out
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func updateStrutsForMonitor(monitor *Monitor, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *dockStruts) {
	mon := box{monitor.X, monitor.Y, monitor.X + monitor.Width, monitor.Y + monitor.Height}

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		b := box{int(sp.TopStartX), 0, int(sp.TopEndX) + 1, int(sp.Top)}
		acc.top = max(acc.top, mon.intersect(b).h)
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight)
	if sp.Bottom > 0 {
		b := box{int(sp.BottomStartX), rootHeight - int(sp.Bottom), int(sp.BottomEndX) + 1, rootHeight}
		acc.bottom = max(acc.bottom, mon.intersect(b).h)
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		b := box{0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY) + 1}
		acc.left = max(acc.left, mon.intersect(b).w)
	}

	// Right strut: x=[rootWidth-Right,rootWidth)
	if sp.Right > 0 {
		b := box{rootWidth - int(sp.Right), int(sp.RightStartY), rootWidth, int(sp.RightEndY) + 1}
		acc.right = max(acc.right, mon.intersect(b).w)
	}
}

// box is a half-open rectangle given by its corners.
type box struct {
	x1, y1, x2, y2 int
}

type extent struct {
	w int
	h int
}

func (a box) intersect(b box) extent {
	x1 := max(a.x1, b.x1)
	y1 := max(a.y1, b.y1)
	x2 := min(a.x2, b.x2)
	y2 := min(a.y2, b.y2)
	if x2 <= x1 || y2 <= y1 {
		return extent{}
	}
	return extent{w: x2 - x1, h: y2 - y1}
}

// PointerPosition returns the pointer in root coordinates.
func (c *Connection) PointerPosition() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("query pointer: %w", err)
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}
