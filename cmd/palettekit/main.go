package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/palettekit/internal/config"
	"github.com/1broseidon/palettekit/internal/ipc"
	"github.com/1broseidon/palettekit/internal/runtimepath"
)

var (
	socketPath string
	configPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	keyColor     = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

// errSilent marks failures that were already reported to the user.
var errSilent = errors.New("command failed")

var rootCmd = &cobra.Command{
	Use:   "palettekit",
	Short: "Floating palette window host",
	Long: `palettekit hosts floating palette windows: borderless, chrome-less
surfaces that can be shown, animated, docked to one another and dragged
as a group. The daemon owns the windows; every other command talks to it
over a unix socket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Daemon socket path (default: $PALETTEKIT_SOCKET or the runtime dir)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/palettekit/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)

	cobra.OnInitialize(func() {
		if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
			color.NoColor = true
		}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			printError(err.Error())
		}
		os.Exit(1)
	}
}

// resolveConfigPath returns --config or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.LoadResult, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

// resolveSocket picks --socket, then the environment and config file.
func resolveSocket() (string, error) {
	if socketPath != "" {
		return socketPath, nil
	}
	override := ""
	if res, err := loadConfig(); err == nil {
		override = res.Config.SocketPath
	}
	return runtimepath.SocketPath(override)
}

func newClient() (*ipc.Client, error) {
	sock, err := resolveSocket()
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(sock).WithTimeout(timeout), nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func printJSON(data any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printError(msg string) {
	if color.NoColor {
		fmt.Fprintln(os.Stderr, "Error:", msg)
		return
	}
	errorColor.Fprint(os.Stderr, "✗ Error: ")
	fmt.Fprintln(os.Stderr, msg)
}

func printSuccess(msg string) {
	if color.NoColor {
		fmt.Println(msg)
		return
	}
	successColor.Print("✓ ")
	fmt.Println(msg)
}
