package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/palettekit/internal/config"
	"github.com/1broseidon/palettekit/internal/daemon"
	"github.com/1broseidon/palettekit/internal/logging"
	"github.com/1broseidon/palettekit/internal/runtimepath"
)

var (
	daemonHeadless bool
	daemonWatch    bool
	daemonLogLevel string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the palette daemon in the foreground",
	Long: `Run the palette daemon in the foreground.

The daemon connects to the X display (or an in-memory surface set with
--headless), listens on the IPC socket and reloads its configuration on
SIGHUP, on an IPC reload request and, with --watch, when the file changes.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonHeadless, "headless", false, "Use the in-memory backend instead of the display")
	daemonCmd.Flags().BoolVar(&daemonWatch, "watch", false, "Reload when the config file changes")
	daemonCmd.Flags().StringVar(&daemonLogLevel, "log-level", "", "Override logging.level")
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	logCfg := cfg.LoggerConfig()
	if daemonLogLevel != "" {
		logCfg.Level = daemonLogLevel
	}
	logger, closer, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer closer.Close()

	if socketPath != "" {
		if err := os.Setenv(runtimepath.SocketEnv, socketPath); err != nil {
			return err
		}
	}

	d, err := daemon.New(cfg, daemon.Options{
		ConfigPath: path,
		Headless:   daemonHeadless,
		Watch:      daemonWatch,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("socket", d.SocketPath()).
		Strs("files", res.Files).
		Bool("headless", daemonHeadless).
		Msg("palettekit daemon starting")
	return d.Run(ctx)
}
