package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/logging"
	"github.com/1broseidon/palettekit/internal/registry"
	"github.com/1broseidon/palettekit/internal/snap"
)

// Config is the effective daemon configuration after defaults, includes and
// the user file have been merged.
type Config struct {
	Display    string            `yaml:"display,omitempty"`
	XAuthority string            `yaml:"xauthority,omitempty"`
	SocketPath string            `yaml:"socket_path,omitempty"`
	Logging    LoggingConfig     `yaml:"logging"`
	Engine     EngineConfig      `yaml:"engine"`
	Window     WindowConfig      `yaml:"window"`
	Snap       SnapConfig        `yaml:"snap"`
	Presets    map[string]Preset `yaml:"presets"`
}

// LoggingConfig controls the daemon logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // "console" or "json"
	File      string `yaml:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// EngineConfig holds control loop timings.
type EngineConfig struct {
	RevealTimeout     time.Duration `yaml:"reveal_timeout"`
	AnimationDuration time.Duration `yaml:"animation_duration"`
	TickInterval      time.Duration `yaml:"tick_interval"`
	HookTimeout       time.Duration `yaml:"hook_timeout"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	QueueSize         int           `yaml:"queue_size"`
}

// WindowConfig seeds windows created without explicit values.
type WindowConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Opacity     float64 `yaml:"opacity"`
	Draggable   bool    `yaml:"draggable"`
	FocusPolicy string  `yaml:"focus_policy"`
}

// SnapConfig holds docking defaults.
type SnapConfig struct {
	ProximityThreshold float64 `yaml:"proximity_threshold"`
	AutoSnapGap        float64 `yaml:"auto_snap_gap"`
	OnTargetHidden     string  `yaml:"on_target_hidden"`
	OnTargetDestroyed  string  `yaml:"on_target_destroyed"`
}

// Preset is a named bundle of window creation defaults.
type Preset struct {
	Width       float64         `yaml:"width,omitempty"`
	Height      float64         `yaml:"height,omitempty"`
	MinWidth    float64         `yaml:"min_width,omitempty"`
	MinHeight   float64         `yaml:"min_height,omitempty"`
	MaxWidth    float64         `yaml:"max_width,omitempty"`
	MaxHeight   float64         `yaml:"max_height,omitempty"`
	Opacity     *float64        `yaml:"opacity,omitempty"`
	Draggable   *bool           `yaml:"draggable,omitempty"`
	KeepAlive   bool            `yaml:"keep_alive,omitempty"`
	FocusPolicy string          `yaml:"focus_policy,omitempty"`
	Level       string          `yaml:"level,omitempty"`
	AutoSnap    *AutoSnapPreset `yaml:"auto_snap,omitempty"`
}

// AutoSnapPreset is the YAML form of an auto-snap config.
type AutoSnapPreset struct {
	CanSnapFrom        []string `yaml:"can_snap_from,omitempty"`
	AcceptsSnapOn      []string `yaml:"accepts_snap_on,omitempty"`
	TargetIDs          []string `yaml:"target_ids,omitempty"`
	ProximityThreshold float64  `yaml:"proximity_threshold,omitempty"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	settings := engine.DefaultSettings()
	return &Config{
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
		Engine: EngineConfig{
			RevealTimeout:     settings.RevealTimeout,
			AnimationDuration: settings.AnimationDuration,
			TickInterval:      16 * time.Millisecond,
			HookTimeout:       8 * time.Millisecond,
			ReconcileInterval: 5 * time.Second,
			QueueSize:         256,
		},
		Window: WindowConfig{
			Width:       settings.Window.Width,
			Height:      settings.Window.Height,
			Opacity:     settings.Window.Opacity,
			Draggable:   settings.Window.Draggable,
			FocusPolicy: settings.Window.FocusPolicy.String(),
		},
		Snap: SnapConfig{
			ProximityThreshold: settings.Snap.ProximityThreshold,
			AutoSnapGap:        settings.Snap.AutoSnapGap,
			OnTargetHidden:     settings.Snap.OnTargetHidden.String(),
			OnTargetDestroyed:  settings.Snap.OnTargetDestroyed.String(),
		},
		Presets: map[string]Preset{},
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: trace, debug, info, warn, error")}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be one of: console, json")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("must be >= 0")}
	}

	durations := []struct {
		path string
		d    time.Duration
	}{
		{"engine.reveal_timeout", c.Engine.RevealTimeout},
		{"engine.animation_duration", c.Engine.AnimationDuration},
		{"engine.tick_interval", c.Engine.TickInterval},
		{"engine.hook_timeout", c.Engine.HookTimeout},
		{"engine.reconcile_interval", c.Engine.ReconcileInterval},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return &ValidationError{Path: d.path, Err: fmt.Errorf("must be > 0")}
		}
	}
	if c.Engine.QueueSize <= 0 {
		return &ValidationError{Path: "engine.queue_size", Err: fmt.Errorf("must be > 0")}
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ValidationError{Path: "window", Err: fmt.Errorf("width and height must be > 0")}
	}
	if c.Window.Opacity < 0 || c.Window.Opacity > 1 {
		return &ValidationError{Path: "window.opacity", Err: fmt.Errorf("opacity must be within [0, 1]")}
	}
	if _, err := registry.ParseFocusPolicy(c.Window.FocusPolicy); err != nil {
		return &ValidationError{Path: "window.focus_policy", Err: err}
	}

	if c.Snap.ProximityThreshold <= 0 {
		return &ValidationError{Path: "snap.proximity_threshold", Err: fmt.Errorf("must be > 0")}
	}
	if c.Snap.AutoSnapGap < 0 {
		return &ValidationError{Path: "snap.auto_snap_gap", Err: fmt.Errorf("must be >= 0")}
	}
	if _, err := snap.ParsePolicy(c.Snap.OnTargetHidden, snap.HideFollower); err != nil {
		return &ValidationError{Path: "snap.on_target_hidden", Err: err}
	}
	if _, err := snap.ParsePolicy(c.Snap.OnTargetDestroyed, snap.HideAndDetach); err != nil {
		return &ValidationError{Path: "snap.on_target_destroyed", Err: err}
	}

	for _, name := range sortedKeys(c.Presets) {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "presets", Err: fmt.Errorf("presets contains an empty name")}
		}
		if _, err := c.Presets[name].toEngine(); err != nil {
			return &ValidationError{Path: "presets." + name, Err: err}
		}
	}
	return nil
}

// EngineSettings converts the config into engine tunables.
func (c *Config) EngineSettings() engine.Settings {
	s := engine.DefaultSettings()
	s.RevealTimeout = c.Engine.RevealTimeout
	s.AnimationDuration = c.Engine.AnimationDuration
	s.Window = engine.WindowDefaults{
		Width:     c.Window.Width,
		Height:    c.Window.Height,
		Opacity:   c.Window.Opacity,
		Draggable: c.Window.Draggable,
	}
	s.Window.FocusPolicy, _ = registry.ParseFocusPolicy(c.Window.FocusPolicy)
	s.Snap.ProximityThreshold = c.Snap.ProximityThreshold
	s.Snap.AutoSnapGap = c.Snap.AutoSnapGap
	s.Snap.OnTargetHidden, _ = snap.ParsePolicy(c.Snap.OnTargetHidden, snap.HideFollower)
	s.Snap.OnTargetDestroyed, _ = snap.ParsePolicy(c.Snap.OnTargetDestroyed, snap.HideAndDetach)
	return s
}

// EnginePresets converts the presets. Invalid presets are skipped; Validate
// reports them.
func (c *Config) EnginePresets() map[string]engine.Preset {
	out := make(map[string]engine.Preset, len(c.Presets))
	for name, p := range c.Presets {
		ep, err := p.toEngine()
		if err != nil {
			continue
		}
		out[name] = ep
	}
	return out
}

func (p Preset) toEngine() (engine.Preset, error) {
	out := engine.Preset{
		Width:  p.Width,
		Height: p.Height,
		Limits: geom.Limits{
			MinWidth:  p.MinWidth,
			MinHeight: p.MinHeight,
			MaxWidth:  p.MaxWidth,
			MaxHeight: p.MaxHeight,
		},
		KeepAlive: p.KeepAlive,
	}
	if p.Width < 0 || p.Height < 0 || p.MinWidth < 0 || p.MinHeight < 0 || p.MaxWidth < 0 || p.MaxHeight < 0 {
		return out, fmt.Errorf("sizes must be >= 0")
	}
	if p.MaxWidth > 0 && p.MinWidth > p.MaxWidth {
		return out, fmt.Errorf("min_width exceeds max_width")
	}
	if p.MaxHeight > 0 && p.MinHeight > p.MaxHeight {
		return out, fmt.Errorf("min_height exceeds max_height")
	}
	if p.Opacity != nil {
		if *p.Opacity < 0 || *p.Opacity > 1 {
			return out, fmt.Errorf("opacity must be within [0, 1]")
		}
		v := *p.Opacity
		out.Opacity = &v
	}
	if p.Draggable != nil {
		v := *p.Draggable
		out.Draggable = &v
	}
	if p.FocusPolicy != "" {
		policy, err := registry.ParseFocusPolicy(p.FocusPolicy)
		if err != nil {
			return out, err
		}
		out.FocusPolicy = &policy
	}
	if p.Level != "" {
		level, err := registry.ParseLevel(p.Level)
		if err != nil {
			return out, err
		}
		out.Level = &level
	}
	if p.AutoSnap != nil {
		cfg, err := p.AutoSnap.toEngine()
		if err != nil {
			return out, fmt.Errorf("auto_snap: %w", err)
		}
		out.AutoSnap = &cfg
	}
	return out, nil
}

func (a AutoSnapPreset) toEngine() (snap.AutoSnapConfig, error) {
	from, err := parseEdges(a.CanSnapFrom)
	if err != nil {
		return snap.AutoSnapConfig{}, err
	}
	on, err := parseEdges(a.AcceptsSnapOn)
	if err != nil {
		return snap.AutoSnapConfig{}, err
	}
	if a.ProximityThreshold < 0 {
		return snap.AutoSnapConfig{}, fmt.Errorf("proximity_threshold must be >= 0")
	}
	return snap.AutoSnapConfig{
		CanSnapFrom:        from,
		AcceptsSnapOn:      on,
		TargetIDs:          append([]string(nil), a.TargetIDs...),
		ProximityThreshold: a.ProximityThreshold,
	}, nil
}

func parseEdges(names []string) ([]geom.Edge, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]geom.Edge, 0, len(names))
	for _, n := range names {
		edge, err := geom.ParseEdge(n)
		if err != nil {
			return nil, err
		}
		out = append(out, edge)
	}
	return out, nil
}

// LoggerConfig converts the logging section for logging.New.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		File:      expandHome(c.Logging.File),
		MaxSizeMB: c.Logging.MaxSizeMB,
		MaxFiles:  c.Logging.MaxFiles,
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
