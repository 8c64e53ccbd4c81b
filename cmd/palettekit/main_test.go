package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/1broseidon/palettekit/internal/config"
	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/geom"
	"github.com/1broseidon/palettekit/internal/protocol"
	"github.com/1broseidon/palettekit/internal/registry"
	"github.com/1broseidon/palettekit/internal/runtimepath"
)

func TestBuildParamsMergesJSONAndPairs(t *testing.T) {
	params, err := buildParams(`{"x":10,"animate":true}`, []string{"x=25", "edge=bottom", "gap=4.5", "spring={\"bounce\":0.2}"})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if params["x"] != float64(25) {
		t.Fatalf("x=%v, want 25", params["x"])
	}
	if params["animate"] != true {
		t.Fatalf("animate=%v, want true", params["animate"])
	}
	if params["edge"] != "bottom" {
		t.Fatalf("edge=%v, want bottom", params["edge"])
	}
	if params["gap"] != 4.5 {
		t.Fatalf("gap=%v, want 4.5", params["gap"])
	}
	spring, ok := params["spring"].(map[string]any)
	if !ok || spring["bounce"] != 0.2 {
		t.Fatalf("spring=%v, want object with bounce 0.2", params["spring"])
	}
}

func TestBuildParamsEmptyIsNil(t *testing.T) {
	params, err := buildParams("  ", nil)
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if params != nil {
		t.Fatalf("params=%v, want nil", params)
	}
}

func TestBuildParamsRejectsBadInput(t *testing.T) {
	if _, err := buildParams(`[1,2]`, nil); err == nil {
		t.Fatalf("expected error for non-object --params")
	}
	for _, pair := range []string{"novalue", "=1"} {
		if _, err := buildParams("", []string{pair}); err == nil {
			t.Fatalf("expected error for --set %q", pair)
		}
	}
}

func TestWindowRows(t *testing.T) {
	snap := &engine.Snapshot{
		Windows: []registry.Snapshot{
			{
				ID:          "menu",
				State:       "visible",
				Frame:       geom.Rect{X: 20, Y: 104, Width: 320, Height: 240.5},
				Level:       "normal",
				Opacity:     1,
				Draggable:   true,
				FocusPolicy: "onClick",
				ZIndex:      0,
			},
			{
				ID:          "tip",
				State:       "hidden",
				Frame:       geom.Rect{Width: 100, Height: 40},
				Level:       "floating",
				Opacity:     0.5,
				FocusPolicy: "never",
				Passthrough: true,
				Preset:      "tooltip",
				ZIndex:      1,
			},
		},
		Focused: "menu",
	}

	rows := windowRows(snap)
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}
	want := []string{"0", "menu", "visible", "320x240.5+20+104", "normal", "1", "*", "drag"}
	if strings.Join(rows[0], "|") != strings.Join(want, "|") {
		t.Fatalf("row0=%v, want %v", rows[0], want)
	}
	if rows[1][6] != "" {
		t.Fatalf("row1 focus=%q, want empty", rows[1][6])
	}
	if rows[1][7] != "pass,focus:never,preset:tooltip" {
		t.Fatalf("row1 flags=%q", rows[1][7])
	}
}

func TestPrintSnapshotEmpty(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printSnapshot(&buf, &engine.Snapshot{})
	if !strings.Contains(buf.String(), "No palette windows") {
		t.Fatalf("output=%q", buf.String())
	}
}

func TestPrintEvent(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printEvent(&buf, protocol.Event{
		Service:   protocol.ServiceSnap,
		Name:      "snapped",
		WindowID:  "menu",
		Data:      map[string]any{"targetId": "bar"},
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	})
	want := "03:04:05.006 snap/snapped [menu] {\"targetId\":\"bar\"}\n"
	if buf.String() != want {
		t.Fatalf("output=%q, want %q", buf.String(), want)
	}
}

func TestFormatSource(t *testing.T) {
	cases := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault, Name: "defaults"}, "default:defaults"},
		{config.Source{Kind: config.SourceFile, File: "/a.yaml", Line: 3, Column: 5}, "file:/a.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "/a.yaml"}, "file:/a.yaml"},
		{config.Source{Kind: config.SourceFile}, "file"},
	}
	for _, tc := range cases {
		if got := formatSource(tc.src); got != tc.want {
			t.Fatalf("formatSource(%+v)=%q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestResolveSocketPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv(runtimepath.SocketEnv, "")

	prevSocket, prevConfig := socketPath, configPath
	t.Cleanup(func() { socketPath, configPath = prevSocket, prevConfig })

	socketPath, configPath = "", ""
	got, err := resolveSocket()
	if err != nil {
		t.Fatalf("resolveSocket: %v", err)
	}
	if want := filepath.Join(dir, "palettekit.sock"); got != want {
		t.Fatalf("default socket=%q, want %q", got, want)
	}

	t.Setenv(runtimepath.SocketEnv, "/tmp/env.sock")
	if got, _ := resolveSocket(); got != "/tmp/env.sock" {
		t.Fatalf("env socket=%q, want /tmp/env.sock", got)
	}

	socketPath = "/tmp/flag.sock"
	if got, _ := resolveSocket(); got != "/tmp/flag.sock" {
		t.Fatalf("flag socket=%q, want /tmp/flag.sock", got)
	}
}
