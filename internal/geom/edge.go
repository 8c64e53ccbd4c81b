package geom

import (
	"fmt"
	"strings"
)

// Edge is a side of a frame.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

// AllEdges lists edges in a stable order.
var AllEdges = []Edge{EdgeTop, EdgeBottom, EdgeLeft, EdgeRight}

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	}
	return fmt.Sprintf("Edge(%d)", int(e))
}

// ParseEdge parses an edge name.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(s) {
	case "top":
		return EdgeTop, nil
	case "bottom":
		return EdgeBottom, nil
	case "left":
		return EdgeLeft, nil
	case "right":
		return EdgeRight, nil
	}
	return EdgeTop, fmt.Errorf("unknown edge %q", s)
}

// Opposite returns the edge facing e.
func (e Edge) Opposite() Edge {
	switch e {
	case EdgeTop:
		return EdgeBottom
	case EdgeBottom:
		return EdgeTop
	case EdgeLeft:
		return EdgeRight
	}
	return EdgeLeft
}

// Vertical reports whether the edge is top or bottom, meaning the snap axis
// is vertical and alignment runs horizontally.
func (e Edge) Vertical() bool {
	return e == EdgeTop || e == EdgeBottom
}

// Compatible reports whether a follower edge may abut a target edge. Only
// opposite-facing pairs are compatible.
func Compatible(follower, target Edge) bool {
	return follower.Opposite() == target
}

// Coordinate returns the position of edge e on r.
func (r Rect) Coordinate(e Edge) float64 {
	switch e {
	case EdgeTop:
		return r.Top()
	case EdgeBottom:
		return r.Bottom()
	case EdgeLeft:
		return r.Left()
	}
	return r.Right()
}

// Alignment positions a follower along the axis perpendicular to the snap.
type Alignment int

const (
	AlignLeading Alignment = iota
	AlignCenter
	AlignTrailing
)

func (a Alignment) String() string {
	switch a {
	case AlignLeading:
		return "leading"
	case AlignTrailing:
		return "trailing"
	}
	return "center"
}

// ParseAlignment parses an alignment name. "start" and "end" are accepted as
// aliases.
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(s) {
	case "leading", "start":
		return AlignLeading, nil
	case "center", "":
		return AlignCenter, nil
	case "trailing", "end":
		return AlignTrailing, nil
	}
	return AlignCenter, fmt.Errorf("unknown alignment %q", s)
}

// Align returns the leading coordinate of a span of length size placed
// against a span [start, start+length).
func (a Alignment) Align(start, length, size float64) float64 {
	switch a {
	case AlignLeading:
		return start
	case AlignTrailing:
		return start + length - size
	}
	return start + (length-size)/2
}
