package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/platform"
)

// State is a window's position in the visibility lifecycle.
type State int

const (
	StateCreated State = iota
	StatePendingReveal
	StateVisible
	StateHidden
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePendingReveal:
		return "pendingReveal"
	case StateVisible:
		return "visible"
	case StateHidden:
		return "hidden"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// OnScreen reports whether the surface is mapped, including the transparent
// pending-reveal phase.
func (s State) OnScreen() bool {
	return s == StatePendingReveal || s == StateVisible
}

// FocusPolicy controls whether a window may take keyboard focus.
type FocusPolicy int

const (
	FocusOnClick FocusPolicy = iota
	FocusNever
	FocusAlways
)

func (p FocusPolicy) String() string {
	switch p {
	case FocusNever:
		return "never"
	case FocusAlways:
		return "always"
	}
	return "onClick"
}

// ParseFocusPolicy parses a wire focus policy. Empty means onClick.
func ParseFocusPolicy(s string) (FocusPolicy, error) {
	switch strings.ToLower(s) {
	case "", "onclick", "on_click":
		return FocusOnClick, nil
	case "never", "none":
		return FocusNever, nil
	case "always":
		return FocusAlways, nil
	}
	return FocusOnClick, fmt.Errorf("unknown focus policy %q", s)
}

// ParseLevel parses a wire z-level name.
func ParseLevel(s string) (platform.Level, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return platform.LevelNormal, nil
	case "abovenormal", "floating", "pinned":
		return platform.LevelAboveNormal, nil
	case "aboveall", "top", "screensaver":
		return platform.LevelAboveAll, nil
	}
	return platform.LevelNormal, fmt.Errorf("unknown level %q", s)
}

// Window is the registry record for one palette.
type Window struct {
	ID           string
	Frame        geom.Rect
	Limits       geom.Limits
	CornerRadius float64
	Transform    geom.Transform
	Opacity      float64
	State        State
	Draggable    bool
	FocusPolicy  FocusPolicy
	Level        platform.Level
	KeepAlive    bool
	Surface      platform.SurfaceID
	EntryPoint   any
	Cursor       string
	Passthrough  bool
	Preset       string
	CreatedAt    time.Time

	// FocusOnReveal is set by show and consumed by reveal.
	FocusOnReveal bool
}

// Options are the creation-time fields of a Window.
type Options struct {
	Frame        geom.Rect
	Limits       geom.Limits
	CornerRadius float64
	Opacity      float64
	Draggable    bool
	FocusPolicy  FocusPolicy
	Level        platform.Level
	KeepAlive    bool
	EntryPoint   any
	Preset       string
}

// NewWindow builds a record in the Created state. The size is clamped to the
// limits.
func NewWindow(id string, opts Options, now time.Time) *Window {
	w := &Window{
		ID:           id,
		Frame:        opts.Frame,
		Limits:       opts.Limits,
		CornerRadius: opts.CornerRadius,
		Transform:    geom.Identity(),
		Opacity:      clampUnit(opts.Opacity),
		State:        StateCreated,
		Draggable:    opts.Draggable,
		FocusPolicy:  opts.FocusPolicy,
		Level:        opts.Level,
		KeepAlive:    opts.KeepAlive,
		EntryPoint:   opts.EntryPoint,
		Preset:       opts.Preset,
		CreatedAt:    now,
	}
	w.Resize(opts.Frame.Size())
	return w
}

// Resize applies s clamped to the window's limits and returns the size that
// was applied.
func (w *Window) Resize(s geom.Size) geom.Size {
	s = w.Limits.Apply(s)
	w.Frame.Width = s.Width
	w.Frame.Height = s.Height
	return s
}

// SetLimits replaces the size limits and re-clamps the current size.
func (w *Window) SetLimits(l geom.Limits) {
	w.Limits = l
	w.Resize(w.Frame.Size())
}

// SetOpacity stores opacity clamped to [0,1].
func (w *Window) SetOpacity(v float64) float64 {
	w.Opacity = clampUnit(v)
	return w.Opacity
}

// Snapshot is the serializable view of a Window.
type Snapshot struct {
	ID           string         `json:"id"`
	State        string         `json:"state"`
	Frame        geom.Rect      `json:"frame"`
	Limits       geom.Limits    `json:"limits"`
	Transform    geom.Transform `json:"transform"`
	Opacity      float64        `json:"opacity"`
	CornerRadius float64        `json:"cornerRadius"`
	Draggable    bool           `json:"draggable"`
	FocusPolicy  string         `json:"focusPolicy"`
	Level        string         `json:"level"`
	KeepAlive    bool           `json:"keepAlive"`
	Passthrough  bool           `json:"passthrough"`
	Cursor       string         `json:"cursor,omitempty"`
	Preset       string         `json:"preset,omitempty"`
	ZIndex       int            `json:"zIndex"`
}

// Snapshot copies the record.
func (w *Window) Snapshot() Snapshot {
	return Snapshot{
		ID:           w.ID,
		State:        w.State.String(),
		Frame:        w.Frame,
		Limits:       w.Limits,
		Transform:    w.Transform,
		Opacity:      w.Opacity,
		CornerRadius: w.CornerRadius,
		Draggable:    w.Draggable,
		FocusPolicy:  w.FocusPolicy.String(),
		Level:        w.Level.String(),
		KeepAlive:    w.KeepAlive,
		Passthrough:  w.Passthrough,
		Cursor:       w.Cursor,
		Preset:       w.Preset,
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
