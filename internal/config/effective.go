package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies a merged raw config on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.SocketPath != nil {
		cfg.SocketPath = *raw.SocketPath
	}
	if l := raw.Logging; l != nil {
		assign(&cfg.Logging.Level, l.Level)
		assign(&cfg.Logging.Format, l.Format)
		assign(&cfg.Logging.File, l.File)
		assign(&cfg.Logging.MaxSizeMB, l.MaxSizeMB)
		assign(&cfg.Logging.MaxFiles, l.MaxFiles)
	}
	if e := raw.Engine; e != nil {
		assign(&cfg.Engine.RevealTimeout, e.RevealTimeout)
		assign(&cfg.Engine.AnimationDuration, e.AnimationDuration)
		assign(&cfg.Engine.TickInterval, e.TickInterval)
		assign(&cfg.Engine.HookTimeout, e.HookTimeout)
		assign(&cfg.Engine.ReconcileInterval, e.ReconcileInterval)
		assign(&cfg.Engine.QueueSize, e.QueueSize)
	}
	if w := raw.Window; w != nil {
		assign(&cfg.Window.Width, w.Width)
		assign(&cfg.Window.Height, w.Height)
		assign(&cfg.Window.Opacity, w.Opacity)
		assign(&cfg.Window.Draggable, w.Draggable)
		assign(&cfg.Window.FocusPolicy, w.FocusPolicy)
	}
	if s := raw.Snap; s != nil {
		assign(&cfg.Snap.ProximityThreshold, s.ProximityThreshold)
		assign(&cfg.Snap.AutoSnapGap, s.AutoSnapGap)
		assign(&cfg.Snap.OnTargetHidden, s.OnTargetHidden)
		assign(&cfg.Snap.OnTargetDestroyed, s.OnTargetDestroyed)
	}

	presets, err := resolvePresets(raw.Presets)
	if err != nil {
		return nil, err
	}
	cfg.Presets = presets
	return cfg, nil
}

// resolvePresets flattens inherits chains. A preset inherits every field its
// base sets and overrides the ones it sets itself.
func resolvePresets(raw map[string]RawPreset) (map[string]Preset, error) {
	out := make(map[string]Preset, len(raw))
	for _, name := range sortedKeys(raw) {
		flat, err := flattenPreset(name, raw, nil)
		if err != nil {
			return nil, err
		}
		out[name] = presetFromRaw(flat)
	}
	return out, nil
}

func flattenPreset(name string, raw map[string]RawPreset, stack []string) (RawPreset, error) {
	for _, seen := range stack {
		if seen == name {
			return RawPreset{}, &ValidationError{
				Path: "presets." + stack[0] + ".inherits",
				Err:  fmt.Errorf("inherits cycle: %s -> %s", strings.Join(stack, " -> "), name),
			}
		}
	}
	p, ok := raw[name]
	if !ok {
		last := stack[len(stack)-1]
		return RawPreset{}, &ValidationError{
			Path: "presets." + last + ".inherits",
			Err:  fmt.Errorf("unknown preset %q", name),
		}
	}
	if p.Inherits == nil || strings.TrimSpace(*p.Inherits) == "" {
		return p, nil
	}
	base, err := flattenPreset(strings.TrimSpace(*p.Inherits), raw, append(stack, name))
	if err != nil {
		return RawPreset{}, err
	}
	merged := mergeRawPreset(base, p)
	merged.Inherits = nil
	return merged, nil
}

func presetFromRaw(p RawPreset) Preset {
	var out Preset
	assign(&out.Width, p.Width)
	assign(&out.Height, p.Height)
	assign(&out.MinWidth, p.MinWidth)
	assign(&out.MinHeight, p.MinHeight)
	assign(&out.MaxWidth, p.MaxWidth)
	assign(&out.MaxHeight, p.MaxHeight)
	assign(&out.KeepAlive, p.KeepAlive)
	assign(&out.FocusPolicy, p.FocusPolicy)
	assign(&out.Level, p.Level)
	out.Opacity = p.Opacity
	out.Draggable = p.Draggable
	if p.AutoSnap != nil {
		cp := *p.AutoSnap
		out.AutoSnap = &cp
	}
	return out
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
