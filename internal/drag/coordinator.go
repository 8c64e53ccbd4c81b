// Package drag runs interactive window drags. At most one drag is active at
// a time across all windows.
package drag

import (
	"github.com/1broseidon/palettekit/internal/geom"
)

// Host gives the coordinator access to window geometry and the pointer.
type Host interface {
	Frame(id string) (geom.Rect, bool)
	Draggable(id string) bool
	MoveTo(id string, origin geom.Point)
	// Capture grabs the pointer for id and returns its current logical
	// position.
	Capture(id string) (geom.Point, error)
	Release()
}

// Listener observes drag lifecycle transitions.
type Listener interface {
	DragBegan(id string)
	DragMoved(id string, frame geom.Rect)
	DragEnded(id string, frame geom.Rect)
}

type session struct {
	id           string
	pointerStart geom.Point
	windowStart  geom.Point
}

// Coordinator is the Idle/Dragging state machine.
type Coordinator struct {
	host      Host
	listeners []Listener
	active    *session
}

// New creates a coordinator notifying listeners in order.
func New(host Host, listeners ...Listener) *Coordinator {
	return &Coordinator{host: host, listeners: listeners}
}

// AddListener appends l to the notification list.
func (c *Coordinator) AddListener(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Active returns the dragged window id.
func (c *Coordinator) Active() (string, bool) {
	if c.active == nil {
		return "", false
	}
	return c.active.id, true
}

// Start begins dragging id. It is a silent no-op, returning false, when a
// drag is already running, the window is unknown or not draggable, or the
// pointer cannot be captured.
func (c *Coordinator) Start(id string) bool {
	if c.active != nil || !c.host.Draggable(id) {
		return false
	}
	frame, ok := c.host.Frame(id)
	if !ok {
		return false
	}
	pointer, err := c.host.Capture(id)
	if err != nil {
		return false
	}
	c.active = &session{id: id, pointerStart: pointer, windowStart: frame.Origin()}
	for _, l := range c.listeners {
		l.DragBegan(id)
	}
	return true
}

// Move repositions the dragged window so it keeps its offset from the
// pointer.
func (c *Coordinator) Move(pointer geom.Point) {
	s := c.active
	if s == nil {
		return
	}
	origin := geom.Point{
		X: s.windowStart.X + pointer.X - s.pointerStart.X,
		Y: s.windowStart.Y + pointer.Y - s.pointerStart.Y,
	}
	c.host.MoveTo(s.id, origin)
	if c.active != s {
		return
	}
	frame, ok := c.host.Frame(s.id)
	if !ok {
		return
	}
	for _, l := range c.listeners {
		l.DragMoved(s.id, frame)
	}
}

// End finishes the drag on pointer release or capture loss.
func (c *Coordinator) End() {
	s := c.active
	if s == nil {
		return
	}
	c.active = nil
	c.host.Release()
	frame, ok := c.host.Frame(s.id)
	if !ok {
		return
	}
	for _, l := range c.listeners {
		l.DragEnded(s.id, frame)
	}
}

// Cancel drops the drag on id without notifying listeners. It is used when
// the dragged window is destroyed.
func (c *Coordinator) Cancel(id string) {
	if c.active == nil || c.active.id != id {
		return
	}
	c.active = nil
	c.host.Release()
}
