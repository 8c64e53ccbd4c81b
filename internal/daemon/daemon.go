// Package daemon assembles the palette engine, its control loop, the IPC
// server, the reconciler and the platform event loop into one process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/palettekit/internal/clock"
	"github.com/1broseidon/palettekit/internal/config"
	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/ipc"
	"github.com/1broseidon/palettekit/internal/platform"
	"github.com/1broseidon/palettekit/internal/runtimepath"
)

// Options configure New.
type Options struct {
	// ConfigPath is reloaded on SIGHUP, IPC reload and file changes.
	// Empty disables reloading from disk.
	ConfigPath string
	// Headless runs on the in-memory backend instead of the display.
	Headless bool
	// Backend overrides platform selection.
	Backend platform.Backend
	// Watch enables the config file watcher.
	Watch  bool
	Logger zerolog.Logger
}

// eventSource is a backend that owns an event loop of its own.
type eventSource interface {
	Run(ctx context.Context) error
	Close() error
}

// Daemon is a running palette host.
type Daemon struct {
	opts       Options
	log        zerolog.Logger
	socketPath string

	mu  sync.Mutex
	cfg *config.Config

	backend    platform.Backend
	loop       *engine.Loop
	runner     *engine.Runner
	bus        *ipc.Bus
	server     *ipc.Server
	reconciler *Reconciler
}

// New builds a daemon from cfg. Nothing runs until Run.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger.With().Str("component", "daemon").Logger()

	socketPath, err := runtimepath.SocketPath(cfg.SocketPath)
	if err != nil {
		return nil, err
	}

	backend, platformName, err := openBackend(cfg, opts)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		opts:       opts,
		log:        log,
		socketPath: socketPath,
		cfg:        cfg,
		backend:    backend,
		bus:        ipc.NewBus(),
	}

	d.loop = engine.NewLoop(cfg.Engine.QueueSize, cfg.Engine.HookTimeout, opts.Logger)
	eng := engine.New(engine.Options{
		Backend:   backend,
		Clock:     clock.Real{},
		Ticker:    clock.NewIntervalTicker(cfg.Engine.TickInterval, d.loop.Post),
		Sink:      d.bus,
		Scheduler: d.loop,
		Logger:    opts.Logger,
		Settings:  cfg.EngineSettings(),
		Presets:   cfg.EnginePresets(),
		Platform:  platformName,
	})
	d.runner = engine.NewRunner(eng, d.loop)

	d.server = ipc.NewServer(ipc.ServerOptions{
		SocketPath: socketPath,
		Executor:   d.runner,
		Bus:        d.bus,
		Reload:     d.Reload,
		Logger:     opts.Logger,
	})

	d.reconciler = NewReconciler(ReconcilerConfig{
		Interval: cfg.Engine.ReconcileInterval,
		Logger:   opts.Logger,
	}, d.reconcilePass)

	return d, nil
}

func openBackend(cfg *config.Config, opts Options) (platform.Backend, string, error) {
	switch {
	case opts.Backend != nil:
		return opts.Backend, "custom", nil
	case opts.Headless:
		return platform.NewMemoryBackend(), "headless", nil
	}
	if cfg.XAuthority != "" {
		if err := os.Setenv("XAUTHORITY", cfg.XAuthority); err != nil {
			return nil, "", fmt.Errorf("set XAUTHORITY: %w", err)
		}
	}
	backend, err := openDisplay(cfg.Display)
	if err != nil {
		return nil, "", err
	}
	return backend, "x11", nil
}

// SocketPath is where the daemon listens.
func (d *Daemon) SocketPath() string { return d.socketPath }

// Runner executes commands against the daemon's engine.
func (d *Daemon) Runner() *engine.Runner { return d.runner }

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run serves until ctx is cancelled or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.server.Listen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.loop.Run(ctx) })
	g.Go(func() error { return d.server.Serve(ctx) })

	// Clear anything left over before the periodic passes start.
	d.reconciler.ReconcileNow(ctx)
	g.Go(func() error { return d.reconciler.Run(ctx) })

	if src, ok := d.backend.(eventSource); ok {
		g.Go(func() error { return src.Run(ctx) })
	}
	if d.opts.Watch && d.opts.ConfigPath != "" {
		g.Go(func() error { return d.watch(ctx) })
	}
	g.Go(func() error { return d.handleSignals(ctx) })

	d.log.Info().
		Str("socket", d.socketPath).
		Bool("headless", d.opts.Headless).
		Msg("palettekit daemon started")

	err := g.Wait()
	if src, ok := d.backend.(eventSource); ok {
		if cerr := src.Close(); cerr != nil {
			d.log.Warn().Err(cerr).Msg("closing platform backend")
		}
	}
	d.log.Info().Msg("palettekit daemon stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Daemon) reconcilePass(ctx context.Context) ([]string, error) {
	var removed []string
	err := d.runner.Do(ctx, func(e *engine.Engine) { removed = e.Reconcile() })
	return removed, err
}

// Reload re-reads the config file and applies it to the engine.
func (d *Daemon) Reload(ctx context.Context) error {
	if d.opts.ConfigPath == "" {
		return fmt.Errorf("no config file to reload")
	}
	res, err := config.LoadFromPath(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	return d.apply(ctx, res.Config)
}

// apply swaps engine tunables. Socket, display and loop sizing only change
// on restart.
func (d *Daemon) apply(ctx context.Context, cfg *config.Config) error {
	settings, presets := cfg.EngineSettings(), cfg.EnginePresets()
	err := d.runner.Do(ctx, func(e *engine.Engine) { e.Reconfigure(settings, presets) })
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	d.log.Info().Int("presets", len(presets)).Msg("configuration reloaded")
	return nil
}

func (d *Daemon) watch(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(d.opts.ConfigPath)); err != nil {
		d.log.Debug().Str("path", d.opts.ConfigPath).Msg("config directory missing, not watching")
		return nil
	}
	w := config.NewWatcher(d.opts.ConfigPath, func(res *config.LoadResult) {
		if err := d.apply(ctx, res.Config); err != nil && ctx.Err() == nil {
			d.log.Warn().Err(err).Msg("applying watched config")
		}
	}, d.opts.Logger)
	if err := w.Run(ctx); err != nil {
		d.log.Warn().Err(err).Msg("config watcher stopped")
	}
	return nil
}

func (d *Daemon) handleSignals(ctx context.Context) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			d.log.Info().Msg("received SIGHUP, reloading config")
			if err := d.Reload(ctx); err != nil {
				d.log.Warn().Err(err).Msg("config reload failed")
			}
		}
	}
}
