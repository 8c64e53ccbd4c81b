package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/palettekit/internal/ipc"
	"github.com/1broseidon/palettekit/internal/logging"
	"github.com/1broseidon/palettekit/internal/mcp"
)

var mcpLogLevel string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server on stdio. Each tool call is forwarded to the
running daemon, so start "palettekit daemon" first.

Logs go to stderr; stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sock, err := resolveSocket()
		if err != nil {
			return err
		}
		logger, closer, err := logging.New(logging.Config{
			Level:  mcpLogLevel,
			Format: "console",
			Output: os.Stderr,
		})
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := mcp.NewServer(ipc.NewClient(sock).WithTimeout(timeout), logger)
		logger.Info().Str("socket", sock).Msg("MCP server starting")
		return server.Run(ctx)
	},
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpLogLevel, "log-level", "warn", "Log level for stderr output")
	mcpCmd.AddCommand(mcpServeCmd)
}
