package snap

import (
	"fmt"
	"strings"

	"github.com/1broseidon/palettekit/internal/geom"
)

// Policy is applied to a follower when its target hides or is destroyed.
type Policy int

const (
	HideFollower Policy = iota
	HideAndDetach
	Leave
)

func (p Policy) String() string {
	switch p {
	case HideAndDetach:
		return "hideAndDetach"
	case Leave:
		return "none"
	}
	return "hideFollower"
}

// ParsePolicy parses a policy name. Empty returns def.
func ParsePolicy(s string, def Policy) (Policy, error) {
	switch strings.ToLower(s) {
	case "":
		return def, nil
	case "hidefollower", "hide":
		return HideFollower, nil
	case "hideanddetach":
		return HideAndDetach, nil
	case "none", "leave":
		return Leave, nil
	}
	return def, fmt.Errorf("unknown snap policy %q", s)
}

// Binding docks a follower's edge against a target's opposite edge.
type Binding struct {
	Follower          string
	Target            string
	FollowerEdge      geom.Edge
	TargetEdge        geom.Edge
	Alignment         geom.Alignment
	Gap               float64
	OnTargetHidden    Policy
	OnTargetDestroyed Policy
}

// Info is the serializable form of a Binding.
type Info struct {
	FollowerID        string  `json:"followerId"`
	TargetID          string  `json:"targetId"`
	FollowerEdge      string  `json:"followerEdge"`
	TargetEdge        string  `json:"targetEdge"`
	Alignment         string  `json:"alignment"`
	Gap               float64 `json:"gap"`
	OnTargetHidden    string  `json:"onTargetHidden"`
	OnTargetDestroyed string  `json:"onTargetDestroyed"`
}

func (b Binding) Info() Info {
	return Info{
		FollowerID:        b.Follower,
		TargetID:          b.Target,
		FollowerEdge:      b.FollowerEdge.String(),
		TargetEdge:        b.TargetEdge.String(),
		Alignment:         b.Alignment.String(),
		Gap:               b.Gap,
		OnTargetHidden:    b.OnTargetHidden.String(),
		OnTargetDestroyed: b.OnTargetDestroyed.String(),
	}
}

// AutoSnapConfig opts a window into proximity snapping.
type AutoSnapConfig struct {
	CanSnapFrom        []geom.Edge
	AcceptsSnapOn      []geom.Edge
	TargetIDs          []string
	ProximityThreshold float64
}

// Empty reports whether the config has no edges in either direction.
func (c AutoSnapConfig) Empty() bool {
	return len(c.CanSnapFrom) == 0 && len(c.AcceptsSnapOn) == 0
}

func (c AutoSnapConfig) accepts(e geom.Edge) bool {
	for _, a := range c.AcceptsSnapOn {
		if a == e {
			return true
		}
	}
	return false
}

func (c AutoSnapConfig) allowsTarget(id string) bool {
	if len(c.TargetIDs) == 0 {
		return true
	}
	for _, t := range c.TargetIDs {
		if t == id {
			return true
		}
	}
	return false
}

// Proximity is the transient candidate tracked during a drag.
type Proximity struct {
	Dragged     string
	Target      string
	DraggedEdge geom.Edge
	TargetEdge  geom.Edge
	Distance    float64
}

func (p *Proximity) sameCandidate(o *Proximity) bool {
	return p.Target == o.Target && p.DraggedEdge == o.DraggedEdge && p.TargetEdge == o.TargetEdge
}

// Position computes where the follower's origin must be so its edge abuts
// the target's edge at the binding gap, aligned on the perpendicular axis.
// Geometry is untransformed frame bounds.
func Position(follower, target geom.Rect, b Binding) geom.Point {
	p := follower.Origin()
	switch {
	case b.FollowerEdge == geom.EdgeTop && b.TargetEdge == geom.EdgeBottom:
		p.Y = target.Bottom() + b.Gap
	case b.FollowerEdge == geom.EdgeBottom && b.TargetEdge == geom.EdgeTop:
		p.Y = target.Top() - b.Gap - follower.Height
	case b.FollowerEdge == geom.EdgeLeft && b.TargetEdge == geom.EdgeRight:
		p.X = target.Right() + b.Gap
	case b.FollowerEdge == geom.EdgeRight && b.TargetEdge == geom.EdgeLeft:
		p.X = target.Left() - b.Gap - follower.Width
	default:
		return p
	}
	if b.FollowerEdge.Vertical() {
		p.X = b.Alignment.Align(target.X, target.Width, follower.Width)
	} else {
		p.Y = b.Alignment.Align(target.Y, target.Height, follower.Height)
	}
	return p
}

// EdgeDistance returns the gap between the dragged edge and the target edge,
// or ok=false when the frames do not overlap on the perpendicular axis or
// the edges are not compatible.
func EdgeDistance(dragged geom.Rect, draggedEdge geom.Edge, target geom.Rect, targetEdge geom.Edge) (float64, bool) {
	if !geom.Compatible(draggedEdge, targetEdge) {
		return 0, false
	}
	var overlap float64
	if draggedEdge.Vertical() {
		overlap = geom.Overlap(dragged.Left(), dragged.Right(), target.Left(), target.Right())
	} else {
		overlap = geom.Overlap(dragged.Top(), dragged.Bottom(), target.Top(), target.Bottom())
	}
	if overlap <= 0 {
		return 0, false
	}
	d := dragged.Coordinate(draggedEdge) - target.Coordinate(targetEdge)
	if d < 0 {
		d = -d
	}
	return d, true
}
