package platform

import (
	"fmt"
	"strings"
)

// Cursor is a named system pointer shape.
type Cursor int

const (
	CursorArrow Cursor = iota
	CursorText
	CursorCrosshair
	CursorHand
	CursorResizeLeftRight
	CursorResizeUpDown
	CursorMove
	CursorWait
	CursorHelp
	CursorForbidden
)

var cursorNames = map[string]Cursor{
	"arrow":           CursorArrow,
	"default":         CursorArrow,
	"ibeam":           CursorText,
	"text":            CursorText,
	"crosshair":       CursorCrosshair,
	"hand":            CursorHand,
	"pointinghand":    CursorHand,
	"pointer":         CursorHand,
	"resizeleftright": CursorResizeLeftRight,
	"resizeupdown":    CursorResizeUpDown,
	"resizeall":       CursorMove,
	"move":            CursorMove,
	"wait":            CursorWait,
	"help":            CursorHelp,
	"no":              CursorForbidden,
	"forbidden":       CursorForbidden,
	"notallowed":      CursorForbidden,
}

// ParseCursor maps a cursor name to a Cursor. Names are case-insensitive.
func ParseCursor(name string) (Cursor, error) {
	c, ok := cursorNames[strings.ToLower(name)]
	if !ok {
		return CursorArrow, fmt.Errorf("unknown cursor %q", name)
	}
	return c, nil
}

func (c Cursor) String() string {
	switch c {
	case CursorText:
		return "ibeam"
	case CursorCrosshair:
		return "crosshair"
	case CursorHand:
		return "hand"
	case CursorResizeLeftRight:
		return "resizeLeftRight"
	case CursorResizeUpDown:
		return "resizeUpDown"
	case CursorMove:
		return "move"
	case CursorWait:
		return "wait"
	case CursorHelp:
		return "help"
	case CursorForbidden:
		return "forbidden"
	}
	return "arrow"
}
