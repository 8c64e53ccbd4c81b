package platform

import (
	"fmt"
	"math"

	"github.com/1broseidon/palettekit/internal/geom"
)

// SurfaceID identifies an OS-level palette surface.
type SurfaceID uint32

// Rect describes a rectangular region in physical screen pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the physical point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Display describes a physical display, its usable work area and its
// backing scale factor.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
	Scale  float64
}

// Level is a z-level band. Windows in a higher band always stack above
// windows in a lower one.
type Level int

const (
	LevelNormal Level = iota
	LevelAboveNormal
	LevelAboveAll
)

func (l Level) String() string {
	switch l {
	case LevelAboveNormal:
		return "aboveNormal"
	case LevelAboveAll:
		return "aboveAll"
	}
	return "normal"
}

// KeyEvent is a global key transition observed by the keyboard hook. Code
// is the platform key code; KeyID is the logical key identifier clients
// register interest in.
type KeyEvent struct {
	Code      uint32
	KeyID     int64
	Down      bool
	Modifiers []int64
}

// PointerKind distinguishes pointer events.
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
	PointerCaptureLost
)

// PointerEvent is a pointer transition in physical root coordinates.
type PointerEvent struct {
	Kind   PointerKind
	X      int
	Y      int
	Button int
}

// KeyHook decides whether a key event is consumed. Returning false lets the
// key continue to the focused application.
type KeyHook func(KeyEvent) bool

// PointerHook observes pointer events. It never consumes them.
type PointerHook func(PointerEvent)

// Backend abstracts the window-system operations the palette engine needs.
// Geometry is physical pixels; conversion to logical units happens in the
// caller using ScaleFactor, or LogicalScaleFactorAt when the logical
// frame is about to move.
type Backend interface {
	Displays() ([]Display, error)

	CreateSurface(bounds Rect) (SurfaceID, error)
	DestroySurface(id SurfaceID) error
	SurfaceExists(id SurfaceID) bool
	SetBounds(id SurfaceID, bounds Rect) error
	ResizeContent(id SurfaceID, width, height int) error
	SetVisible(id SurfaceID, visible bool) error
	SetOpacity(id SurfaceID, opacity float64) error
	SetNonActivating(id SurfaceID, nonActivating bool) error
	Focus(id SurfaceID) error
	Restack(id, sibling SurfaceID, above bool) error
	SetLevel(id SurfaceID, level Level) error
	SetCursor(id SurfaceID, cursor Cursor) error
	SetPassthrough(id SurfaceID, passthrough bool) error

	ScaleFactor(id SurfaceID) float64
	ScaleFactorAt(x, y int) float64
	LogicalScaleFactorAt(x, y float64) float64
	CursorPosition() (x, y int, err error)

	CapturePointer(id SurfaceID, hook PointerHook) error
	ReleasePointer() error
	InstallKeyHook(hook KeyHook) error
	RemoveKeyHook() error
	InstallPointerHook(hook PointerHook) error
	RemovePointerHook() error
}

// ScaleForPoint returns the scale of the display containing (x, y), falling
// back to the first display and finally to 1.
func ScaleForPoint(displays []Display, x, y int) float64 {
	for _, d := range displays {
		if d.Bounds.Contains(x, y) && d.Scale > 0 {
			return d.Scale
		}
	}
	if len(displays) > 0 && displays[0].Scale > 0 {
		return displays[0].Scale
	}
	return 1
}

// ScaleForLogical is ScaleForPoint for a point in logical units. Each
// display's bounds are divided by its own scale before the test.
func ScaleForLogical(displays []Display, x, y float64) float64 {
	for _, d := range displays {
		if d.Scale <= 0 {
			continue
		}
		if ToLogical(d.Bounds, d.Scale).Contains(geom.Point{X: x, Y: y}) {
			return d.Scale
		}
	}
	if len(displays) > 0 && displays[0].Scale > 0 {
		return displays[0].Scale
	}
	return 1
}

// ToPhysical converts a logical frame to physical pixels.
func ToPhysical(r geom.Rect, scale float64) Rect {
	if scale <= 0 {
		scale = 1
	}
	return Rect{
		X:      int(math.Round(r.X * scale)),
		Y:      int(math.Round(r.Y * scale)),
		Width:  int(math.Round(r.Width * scale)),
		Height: int(math.Round(r.Height * scale)),
	}
}

// ToLogical converts a physical rectangle to logical units.
func ToLogical(r Rect, scale float64) geom.Rect {
	if scale <= 0 {
		scale = 1
	}
	return geom.Rect{
		X:      float64(r.X) / scale,
		Y:      float64(r.Y) / scale,
		Width:  float64(r.Width) / scale,
		Height: float64(r.Height) / scale,
	}
}

// PointToLogical converts a physical point to logical units.
func PointToLogical(x, y int, scale float64) geom.Point {
	if scale <= 0 {
		scale = 1
	}
	return geom.Point{X: float64(x) / scale, Y: float64(y) / scale}
}

// ErrUnknownSurface is returned for operations on surfaces the backend does
// not know about.
type ErrUnknownSurface struct {
	ID SurfaceID
}

func (e ErrUnknownSurface) Error() string {
	return fmt.Sprintf("unknown surface %d", e.ID)
}
