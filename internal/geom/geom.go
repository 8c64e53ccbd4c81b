// Package geom holds the logical geometry model shared by every palette
// component. All values are logical units with the origin at the top-left of
// the virtual screen and y growing downward.
package geom

import "math"

// Point is a logical screen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a logical extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an untransformed logical frame.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Left() float64 { return r.X }
func (r Rect) Right() float64 { return r.X + r.Width }
func (r Rect) Top() float64 { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }
func (r Rect) Center() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }
func (r Rect) Moved(p Point) Rect {
	r.X, r.Y = p.X, p.Y
	return r
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X < r.Right() && p.Y >= r.Top() && p.Y < r.Bottom()
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Overlap returns the length of the intersection of [aMin,aMax] and
// [bMin,bMax], or zero when they are disjoint.
func Overlap(aMin, aMax, bMin, bMax float64) float64 {
	lo := math.Max(aMin, bMin)
	hi := math.Min(aMax, bMax)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Clamp limits v to [lo, hi]. A hi of zero means unbounded and a hi smaller
// than lo is treated as lo.
func Clamp(v, lo, hi float64) float64 {
	if lo < 0 {
		lo = 0
	}
	if v < lo {
		v = lo
	}
	if hi > 0 {
		if hi < lo {
			hi = lo
		}
		if v > hi {
			v = hi
		}
	}
	return v
}

// Limits bounds a window's size.
type Limits struct {
	MinWidth  float64 `json:"minWidth"`
	MinHeight float64 `json:"minHeight"`
	MaxWidth  float64 `json:"maxWidth"`
	MaxHeight float64 `json:"maxHeight"`
}

// Apply clamps s to the limits.
func (l Limits) Apply(s Size) Size {
	return Size{
		Width:  Clamp(s.Width, l.MinWidth, l.MaxWidth),
		Height: Clamp(s.Height, l.MinHeight, l.MaxHeight),
	}
}

// Transform is display-only state. It never feeds snap or hit geometry.
type Transform struct {
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
	FlipH    bool    `json:"flipHorizontal"`
	FlipV    bool    `json:"flipVertical"`
}

// Identity returns the transform that leaves content untouched.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}
