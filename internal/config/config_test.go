package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/registry"
	"github.com/1broseidon/palettekit/internal/snap"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_ValidAndMatchesEngineDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	s := cfg.EngineSettings()
	if s.RevealTimeout != 50*time.Millisecond {
		t.Fatalf("expected reveal timeout 50ms, got %v", s.RevealTimeout)
	}
	if s.Window.Width != 300 || s.Window.Height != 200 {
		t.Fatalf("expected 300x200 default window, got %vx%v", s.Window.Width, s.Window.Height)
	}
	if s.Snap.ProximityThreshold != 50 {
		t.Fatalf("expected proximity threshold 50, got %v", s.Snap.ProximityThreshold)
	}
	if s.Snap.OnTargetDestroyed != snap.HideAndDetach {
		t.Fatalf("expected hideAndDetach, got %v", s.Snap.OnTargetDestroyed)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
	if res.Config.Engine.TickInterval != 16*time.Millisecond {
		t.Fatalf("expected default tick interval, got %v", res.Config.Engine.TickInterval)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Logging.Level != "info" {
		t.Fatalf("expected info level, got %q", res.Config.Logging.Level)
	}
}

func TestLoadFromPath_DurationsAndExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"engine:",
		"  reveal_timeout: 80ms",
		"  hook_timeout: 5ms",
		"window:",
		"  opacity: 0.9",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Engine.RevealTimeout != 80*time.Millisecond {
		t.Fatalf("expected 80ms, got %v", res.Config.Engine.RevealTimeout)
	}
	if res.Config.Engine.HookTimeout != 5*time.Millisecond {
		t.Fatalf("expected 5ms, got %v", res.Config.Engine.HookTimeout)
	}
	if res.Config.Engine.AnimationDuration != 200*time.Millisecond {
		t.Fatalf("expected untouched animation duration, got %v", res.Config.Engine.AnimationDuration)
	}

	val, src, err := Explain(res, "engine.reveal_timeout")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "80ms" {
		t.Fatalf("expected 80ms, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("expected file source at line 2, got %+v", src)
	}

	val, src, err = Explain(res, "snap.proximity_threshold")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 50 {
		t.Fatalf("expected 50, got %#v", val)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %+v", src)
	}

	if _, _, err := Explain(res, "window.nope"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "window:\n  focus_policy: sometimes\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "window.focus_policy" {
		t.Fatalf("expected window.focus_policy, got %q", verr.Path)
	}
	if !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero reveal timeout", func(c *Config) { c.Engine.RevealTimeout = 0 }, "engine.reveal_timeout"},
		{"zero queue", func(c *Config) { c.Engine.QueueSize = 0 }, "engine.queue_size"},
		{"opacity above one", func(c *Config) { c.Window.Opacity = 1.5 }, "window.opacity"},
		{"negative gap", func(c *Config) { c.Snap.AutoSnapGap = -1 }, "snap.auto_snap_gap"},
		{"bad policy", func(c *Config) { c.Snap.OnTargetHidden = "explode" }, "snap.on_target_hidden"},
		{"bad preset edge", func(c *Config) {
			c.Presets["tip"] = Preset{AutoSnap: &AutoSnapPreset{CanSnapFrom: []string{"middle"}}}
		}, "presets.tip"},
		{"inverted preset limits", func(c *Config) {
			c.Presets["tip"] = Preset{MinWidth: 300, MaxWidth: 100}
		}, "presets.tip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	writeFile(t, filepath.Join(dir, "config.d", "10-base.yaml"), "snap:\n  auto_snap_gap: 5\n  proximity_threshold: 30\n")
	writeFile(t, filepath.Join(dir, "config.d", "20-override.yaml"), "snap:\n  auto_snap_gap: 6\n")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"snap:",
		"  auto_snap_gap: 7",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Snap.AutoSnapGap != 7 {
		t.Fatalf("expected auto_snap_gap 7, got %v", res.Config.Snap.AutoSnapGap)
	}
	if res.Config.Snap.ProximityThreshold != 30 {
		t.Fatalf("expected proximity_threshold from include, got %v", res.Config.Snap.ProximityThreshold)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}
	if !strings.HasSuffix(res.Files[2], "config.yaml") {
		t.Fatalf("expected main file loaded last, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_IncludeExpandsEnvAndLoadsSharedFileOnce(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PALETTE_SHARED", filepath.Join(dir, "shared"))

	writeFile(t, filepath.Join(dir, "shared", "base.yaml"), "window:\n  width: 410\n")
	writeFile(t, filepath.Join(dir, "extra.yaml"), "include: $PALETTE_SHARED/base.yaml\nwindow:\n  height: 150\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - ${PALETTE_SHARED}/base.yaml\n  - extra.yaml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Width != 410 || res.Config.Window.Height != 150 {
		t.Fatalf("window = %vx%v, want 410x150", res.Config.Window.Width, res.Config.Window.Height)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected base.yaml loaded once, got %v", res.Files)
	}
	src := res.Sources["window.height"]
	if !strings.HasSuffix(src.File, "extra.yaml") || src.Line != 3 {
		t.Fatalf("window.height source = %+v", src)
	}
}

func TestLoadFromPath_PresetsInheritAndConvert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"presets:",
		"  panel:",
		"    width: 320",
		"    height: 240",
		"    min_width: 200",
		"    focus_policy: never",
		"    level: aboveNormal",
		"    auto_snap:",
		"      accepts_snap_on: [bottom, right]",
		"  tooltip:",
		"    inherits: panel",
		"    height: 60",
		"    opacity: 0.8",
		"    keep_alive: true",
		"    auto_snap:",
		"      can_snap_from: [top]",
		"      proximity_threshold: 30",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tip := res.Config.Presets["tooltip"]
	if tip.Width != 320 || tip.Height != 60 {
		t.Fatalf("expected inherited width and own height, got %vx%v", tip.Width, tip.Height)
	}
	if tip.FocusPolicy != "never" {
		t.Fatalf("expected inherited focus policy, got %q", tip.FocusPolicy)
	}

	presets := res.Config.EnginePresets()
	ep, ok := presets["tooltip"]
	if !ok {
		t.Fatalf("expected tooltip preset")
	}
	if ep.Limits != (geom.Limits{MinWidth: 200}) {
		t.Fatalf("unexpected limits %+v", ep.Limits)
	}
	if ep.Opacity == nil || *ep.Opacity != 0.8 {
		t.Fatalf("expected opacity 0.8, got %v", ep.Opacity)
	}
	if !ep.KeepAlive {
		t.Fatalf("expected keep alive")
	}
	if ep.FocusPolicy == nil || *ep.FocusPolicy != registry.FocusNever {
		t.Fatalf("expected never focus policy")
	}
	if ep.Level == nil || *ep.Level != platform.LevelAboveNormal {
		t.Fatalf("expected aboveNormal level")
	}
	// auto_snap is replaced as a whole, not merged field by field.
	if ep.AutoSnap == nil || len(ep.AutoSnap.CanSnapFrom) != 1 || len(ep.AutoSnap.AcceptsSnapOn) != 0 {
		t.Fatalf("unexpected auto snap %+v", ep.AutoSnap)
	}
	if ep.AutoSnap.CanSnapFrom[0] != geom.EdgeTop || ep.AutoSnap.ProximityThreshold != 30 {
		t.Fatalf("unexpected auto snap %+v", ep.AutoSnap)
	}

	_, src, err := Explain(res, "presets.tooltip.width")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceFile || src.Line != 11 {
		t.Fatalf("expected tooltip preset source, got %+v", src)
	}
}

func TestLoadFromPath_PresetInheritsCycleAndUnknown(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"cycle", "presets:\n  a:\n    inherits: b\n  b:\n    inherits: a\n", "inherits cycle"},
		{"unknown", "presets:\n  a:\n    inherits: ghost\n", "unknown preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.data)
			_, err := LoadFromPath(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q error, got %v", tt.want, err)
			}
		})
	}
}

func TestSave_RoundTripsThroughLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Engine.RevealTimeout = 75 * time.Millisecond
	opacity := 0.5
	cfg.Presets["hud"] = Preset{Width: 100, Opacity: &opacity}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Engine.RevealTimeout != 75*time.Millisecond {
		t.Fatalf("expected 75ms, got %v", res.Config.Engine.RevealTimeout)
	}
	if p := res.Config.Presets["hud"]; p.Opacity == nil || *p.Opacity != 0.5 {
		t.Fatalf("expected hud opacity to survive, got %+v", p)
	}
}

func TestDefaultConfigPath_HonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != "/xdg/palettekit/config.yaml" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestLoggerConfig_ExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := DefaultConfig()
	cfg.Logging.File = "~/.local/state/palettekit/daemon.log"
	cfg.Logging.Format = "json"

	lc := cfg.LoggerConfig()
	if lc.File != "/home/tester/.local/state/palettekit/daemon.log" {
		t.Fatalf("unexpected file %q", lc.File)
	}
	if lc.Format != "json" || lc.MaxFiles != 3 || lc.MaxSizeMB != 10 {
		t.Fatalf("unexpected logging config %+v", lc)
	}
}
