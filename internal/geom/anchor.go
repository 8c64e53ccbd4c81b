package geom

import (
	"fmt"
	"strings"
)

// Anchor names one of nine reference points on a frame.
type Anchor int

const (
	TopLeft Anchor = iota
	TopCenter
	TopRight
	CenterLeft
	Center
	CenterRight
	BottomLeft
	BottomCenter
	BottomRight
)

var anchorNames = map[Anchor]string{
	TopLeft:      "topLeft",
	TopCenter:    "topCenter",
	TopRight:     "topRight",
	CenterLeft:   "centerLeft",
	Center:       "center",
	CenterRight:  "centerRight",
	BottomLeft:   "bottomLeft",
	BottomCenter: "bottomCenter",
	BottomRight:  "bottomRight",
}

func (a Anchor) String() string {
	if name, ok := anchorNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Anchor(%d)", int(a))
}

// ParseAnchor accepts the camelCase names used on the wire. An empty string
// yields TopLeft.
func ParseAnchor(s string) (Anchor, error) {
	if s == "" {
		return TopLeft, nil
	}
	for a, name := range anchorNames {
		if strings.EqualFold(name, s) {
			return a, nil
		}
	}
	return TopLeft, fmt.Errorf("unknown anchor %q", s)
}

// fractions returns the anchor's position as a fraction of width and height.
func (a Anchor) fractions() (fx, fy float64) {
	switch a {
	case TopCenter:
		return 0.5, 0
	case TopRight:
		return 1, 0
	case CenterLeft:
		return 0, 0.5
	case Center:
		return 0.5, 0.5
	case CenterRight:
		return 1, 0.5
	case BottomLeft:
		return 0, 1
	case BottomCenter:
		return 0.5, 1
	case BottomRight:
		return 1, 1
	}
	return 0, 0
}

// OriginFor returns the top-left origin that places the anchor point of a
// frame of the given size at p.
func (a Anchor) OriginFor(p Point, s Size) Point {
	fx, fy := a.fractions()
	return Point{X: p.X - s.Width*fx, Y: p.Y - s.Height*fy}
}

// PointOf returns where the anchor lies on r.
func (a Anchor) PointOf(r Rect) Point {
	fx, fy := a.fractions()
	return Point{X: r.X + r.Width*fx, Y: r.Y + r.Height*fy}
}
