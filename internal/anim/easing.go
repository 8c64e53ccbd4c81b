package anim

import (
	"fmt"
	"math"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress.
type Easing int

const (
	Linear Easing = iota
	EaseIn
	EaseOut
	EaseInOut
)

// ParseEasing parses an easing name. Empty means EaseInOut.
func ParseEasing(s string) (Easing, error) {
	switch strings.ToLower(s) {
	case "linear":
		return Linear, nil
	case "easein", "ease_in", "ease-in":
		return EaseIn, nil
	case "easeout", "ease_out", "ease-out":
		return EaseOut, nil
	case "", "easeinout", "ease_in_out", "ease-in-out":
		return EaseInOut, nil
	}
	return Linear, fmt.Errorf("unknown easing %q", s)
}

func (e Easing) String() string {
	switch e {
	case EaseIn:
		return "easeIn"
	case EaseOut:
		return "easeOut"
	case EaseInOut:
		return "easeInOut"
	}
	return "linear"
}

// Apply evaluates the curve at t, clamping t to [0,1].
func (e Easing) Apply(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return 1 - (1-t)*(1-t)
	case EaseInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - math.Pow(-2*t+2, 3)/2
	}
	return t
}
