// Package anim interpolates numeric window properties over time on a single
// shared ticker.
package anim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/palettekit/internal/clock"
)

// Property is an animatable window attribute.
type Property string

const (
	PropX            Property = "x"
	PropY            Property = "y"
	PropWidth        Property = "width"
	PropHeight       Property = "height"
	PropOpacity      Property = "opacity"
	PropScaleX       Property = "scaleX"
	PropScaleY       Property = "scaleY"
	PropRotation     Property = "rotation"
	PropCornerRadius Property = "cornerRadius"
)

var properties = []Property{
	PropX, PropY, PropWidth, PropHeight, PropOpacity,
	PropScaleX, PropScaleY, PropRotation, PropCornerRadius,
}

// Properties returns every animatable property.
func Properties() []Property {
	return append([]Property(nil), properties...)
}

// ParseProperty parses a property name case-insensitively.
func ParseProperty(s string) (Property, error) {
	for _, p := range properties {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown animatable property %q", s)
}

// Target reads and writes the animated values.
type Target interface {
	Value(id string, p Property) (float64, bool)
	Apply(id string, p Property, v float64)
}

// Spec describes one property animation. A nil From starts at the current
// value.
type Spec struct {
	Property Property
	From     *float64
	To       float64
	Duration time.Duration
	Easing   Easing
}

type key struct {
	id   string
	prop Property
}

type animation struct {
	from, to float64
	duration time.Duration
	easing   Easing
	start    time.Time
}

func (a *animation) progress(now time.Time) float64 {
	if a.duration <= 0 {
		return 1
	}
	return float64(now.Sub(a.start)) / float64(a.duration)
}

func (a *animation) valueAt(now time.Time) float64 {
	t := a.progress(now)
	if t >= 1 {
		return a.to
	}
	return a.from + (a.to-a.from)*a.easing.Apply(t)
}

// Engine owns every active animation. It is driven from one goroutine: the
// ticker must deliver frames on the same control loop that calls Animate.
type Engine struct {
	clock      clock.Clock
	ticker     clock.Ticker
	target     Target
	onComplete func(id string, p Property)

	active map[key]*animation
}

// NewEngine creates an engine. onComplete may be nil.
func NewEngine(c clock.Clock, t clock.Ticker, target Target, onComplete func(id string, p Property)) *Engine {
	return &Engine{
		clock:      c,
		ticker:     t,
		target:     target,
		onComplete: onComplete,
		active:     make(map[key]*animation),
	}
}

// ErrNoTarget is returned when the target has no value for the window.
var ErrNoTarget = errors.New("animation target not found")

// Animate starts or replaces the animation for (id, s.Property). A
// replacement without an explicit From starts at the in-flight animation's
// current interpolated value.
func (e *Engine) Animate(id string, s Spec) error {
	now := e.clock.Now()
	k := key{id: id, prop: s.Property}

	from, ok := e.target.Value(id, s.Property)
	if !ok {
		return ErrNoTarget
	}
	switch {
	case s.From != nil:
		from = *s.From
	case e.active[k] != nil:
		from = e.active[k].valueAt(now)
	}

	e.active[k] = &animation{
		from:     from,
		to:       s.To,
		duration: s.Duration,
		easing:   s.Easing,
		start:    now,
	}
	if !e.ticker.Running() {
		e.ticker.Start(e.Tick)
	}
	return nil
}

// Stop cancels one property animation, leaving the value where it is.
func (e *Engine) Stop(id string, p Property) {
	delete(e.active, key{id: id, prop: p})
	e.stopIfIdle()
}

// StopAll cancels every animation on id.
func (e *Engine) StopAll(id string) {
	for k := range e.active {
		if k.id == id {
			delete(e.active, k)
		}
	}
	e.stopIfIdle()
}

// IsAnimating reports whether id has any running animation.
func (e *Engine) IsAnimating(id string) bool {
	for k := range e.active {
		if k.id == id {
			return true
		}
	}
	return false
}

// IsAnimatingProperty reports whether (id, p) is running.
func (e *Engine) IsAnimatingProperty(id string, p Property) bool {
	_, ok := e.active[key{id: id, prop: p}]
	return ok
}

// Active returns the number of running animations.
func (e *Engine) Active() int {
	return len(e.active)
}

// Tick advances every animation to now. Completed animations land exactly
// on their target value and are reported after all values are applied.
func (e *Engine) Tick(now time.Time) {
	keys := make([]key, 0, len(e.active))
	for k := range e.active {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id == keys[j].id {
			return keys[i].prop < keys[j].prop
		}
		return keys[i].id < keys[j].id
	})

	var done []key
	for _, k := range keys {
		a, ok := e.active[k]
		if !ok {
			continue
		}
		if a.progress(now) >= 1 {
			delete(e.active, k)
			e.target.Apply(k.id, k.prop, a.to)
			done = append(done, k)
			continue
		}
		e.target.Apply(k.id, k.prop, a.valueAt(now))
	}

	e.stopIfIdle()
	if e.onComplete != nil {
		for _, k := range done {
			e.onComplete(k.id, k.prop)
		}
	}
}

func (e *Engine) stopIfIdle() {
	if len(e.active) == 0 && e.ticker.Running() {
		e.ticker.Stop()
	}
}
