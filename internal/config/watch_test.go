package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcher_ReloadsOnWriteAndKeepsLastGoodConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "snap:\n  auto_snap_gap: 4\n")

	reloads := make(chan *LoadResult, 4)
	w := NewWatcher(path, func(res *LoadResult) { reloads <- res }, zerolog.Nop())
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("run: %v", err)
		}
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, "snap:\n  auto_snap_gap: 9\n")

	select {
	case res := <-reloads:
		if res.Config.Snap.AutoSnapGap != 9 {
			t.Fatalf("expected gap 9, got %v", res.Config.Snap.AutoSnapGap)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}

	writeFile(t, path, "snap:\n  auto_snap_gap: -3\n")
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case res := <-reloads:
			// A late duplicate of the previous write is fine.
			if res.Config.Snap.AutoSnapGap != 9 {
				t.Fatalf("invalid config must not be delivered, got %+v", res.Config.Snap)
			}
		case <-deadline:
			return
		}
	}
}
