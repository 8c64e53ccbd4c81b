package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLoggingConfig struct {
	Level     *string `yaml:"level"`
	Format    *string `yaml:"format"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawEngineConfig struct {
	RevealTimeout     *time.Duration `yaml:"reveal_timeout"`
	AnimationDuration *time.Duration `yaml:"animation_duration"`
	TickInterval      *time.Duration `yaml:"tick_interval"`
	HookTimeout       *time.Duration `yaml:"hook_timeout"`
	ReconcileInterval *time.Duration `yaml:"reconcile_interval"`
	QueueSize         *int           `yaml:"queue_size"`
}

type RawWindowConfig struct {
	Width       *float64 `yaml:"width"`
	Height      *float64 `yaml:"height"`
	Opacity     *float64 `yaml:"opacity"`
	Draggable   *bool    `yaml:"draggable"`
	FocusPolicy *string  `yaml:"focus_policy"`
}

type RawSnapConfig struct {
	ProximityThreshold *float64 `yaml:"proximity_threshold"`
	AutoSnapGap        *float64 `yaml:"auto_snap_gap"`
	OnTargetHidden     *string  `yaml:"on_target_hidden"`
	OnTargetDestroyed  *string  `yaml:"on_target_destroyed"`
}

type RawPreset struct {
	Inherits    *string         `yaml:"inherits"`
	Width       *float64        `yaml:"width"`
	Height      *float64        `yaml:"height"`
	MinWidth    *float64        `yaml:"min_width"`
	MinHeight   *float64        `yaml:"min_height"`
	MaxWidth    *float64        `yaml:"max_width"`
	MaxHeight   *float64        `yaml:"max_height"`
	Opacity     *float64        `yaml:"opacity"`
	Draggable   *bool           `yaml:"draggable"`
	KeepAlive   *bool           `yaml:"keep_alive"`
	FocusPolicy *string         `yaml:"focus_policy"`
	Level       *string         `yaml:"level"`
	AutoSnap    *AutoSnapPreset `yaml:"auto_snap"`
}

type RawConfig struct {
	Include    IncludeList          `yaml:"include"`
	Display    *string              `yaml:"display"`
	XAuthority *string              `yaml:"xauthority"`
	SocketPath *string              `yaml:"socket_path"`
	Logging    *RawLoggingConfig    `yaml:"logging"`
	Engine     *RawEngineConfig     `yaml:"engine"`
	Window     *RawWindowConfig     `yaml:"window"`
	Snap       *RawSnapConfig       `yaml:"snap"`
	Presets    map[string]RawPreset `yaml:"presets"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.SocketPath != nil {
		out.SocketPath = overlay.SocketPath
	}
	if overlay.Logging != nil {
		if out.Logging == nil {
			out.Logging = &RawLoggingConfig{}
		} else {
			cp := *out.Logging
			out.Logging = &cp
		}
		setIf(&out.Logging.Level, overlay.Logging.Level)
		setIf(&out.Logging.Format, overlay.Logging.Format)
		setIf(&out.Logging.File, overlay.Logging.File)
		setIf(&out.Logging.MaxSizeMB, overlay.Logging.MaxSizeMB)
		setIf(&out.Logging.MaxFiles, overlay.Logging.MaxFiles)
	}
	if overlay.Engine != nil {
		if out.Engine == nil {
			out.Engine = &RawEngineConfig{}
		} else {
			cp := *out.Engine
			out.Engine = &cp
		}
		setIf(&out.Engine.RevealTimeout, overlay.Engine.RevealTimeout)
		setIf(&out.Engine.AnimationDuration, overlay.Engine.AnimationDuration)
		setIf(&out.Engine.TickInterval, overlay.Engine.TickInterval)
		setIf(&out.Engine.HookTimeout, overlay.Engine.HookTimeout)
		setIf(&out.Engine.ReconcileInterval, overlay.Engine.ReconcileInterval)
		setIf(&out.Engine.QueueSize, overlay.Engine.QueueSize)
	}
	if overlay.Window != nil {
		if out.Window == nil {
			out.Window = &RawWindowConfig{}
		} else {
			cp := *out.Window
			out.Window = &cp
		}
		setIf(&out.Window.Width, overlay.Window.Width)
		setIf(&out.Window.Height, overlay.Window.Height)
		setIf(&out.Window.Opacity, overlay.Window.Opacity)
		setIf(&out.Window.Draggable, overlay.Window.Draggable)
		setIf(&out.Window.FocusPolicy, overlay.Window.FocusPolicy)
	}
	if overlay.Snap != nil {
		if out.Snap == nil {
			out.Snap = &RawSnapConfig{}
		} else {
			cp := *out.Snap
			out.Snap = &cp
		}
		setIf(&out.Snap.ProximityThreshold, overlay.Snap.ProximityThreshold)
		setIf(&out.Snap.AutoSnapGap, overlay.Snap.AutoSnapGap)
		setIf(&out.Snap.OnTargetHidden, overlay.Snap.OnTargetHidden)
		setIf(&out.Snap.OnTargetDestroyed, overlay.Snap.OnTargetDestroyed)
	}

	if overlay.Presets != nil {
		presets := make(map[string]RawPreset, len(out.Presets)+len(overlay.Presets))
		for name, p := range out.Presets {
			presets[name] = p
		}
		for name, p := range overlay.Presets {
			base, ok := presets[name]
			if !ok {
				presets[name] = p
				continue
			}
			presets[name] = mergeRawPreset(base, p)
		}
		out.Presets = presets
	}

	return out
}

func mergeRawPreset(base, patch RawPreset) RawPreset {
	out := base
	setIf(&out.Inherits, patch.Inherits)
	setIf(&out.Width, patch.Width)
	setIf(&out.Height, patch.Height)
	setIf(&out.MinWidth, patch.MinWidth)
	setIf(&out.MinHeight, patch.MinHeight)
	setIf(&out.MaxWidth, patch.MaxWidth)
	setIf(&out.MaxHeight, patch.MaxHeight)
	setIf(&out.Opacity, patch.Opacity)
	setIf(&out.Draggable, patch.Draggable)
	setIf(&out.KeepAlive, patch.KeepAlive)
	setIf(&out.FocusPolicy, patch.FocusPolicy)
	setIf(&out.Level, patch.Level)
	setIf(&out.AutoSnap, patch.AutoSnap)
	return out
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
