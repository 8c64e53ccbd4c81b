package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/palettekit/internal/ipc"
	"github.com/1broseidon/palettekit/internal/protocol"
)

var (
	watchServices []string
	watchWindowID string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream engine events",
	Long: `Stream engine events until interrupted.

With --json each event is printed as one JSON line.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchServices, "service", nil, "Only events from these services")
	watchCmd.Flags().StringVarP(&watchWindowID, "window", "w", "", "Only events for this window")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filter := &ipc.Filter{Services: watchServices, WindowID: watchWindowID}
	enc := json.NewEncoder(os.Stdout)
	ready := func(string) {
		if !jsonOutput {
			dimColor.Fprintln(os.Stderr, "watching events, Ctrl+C to stop")
		}
	}
	return client.Subscribe(ctx, filter, ready, func(e protocol.Event) {
		if jsonOutput {
			enc.Encode(e)
			return
		}
		printEvent(os.Stdout, e)
	})
}

func printEvent(w io.Writer, e protocol.Event) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	dimColor.Fprint(w, ts.Format("15:04:05.000"), " ")
	keyColor.Fprintf(w, "%s/%s", e.Service, e.Name)
	if e.WindowID != "" {
		infoColor.Fprintf(w, " [%s]", e.WindowID)
	}
	if len(e.Data) > 0 {
		if data, err := json.Marshal(e.Data); err == nil {
			fmt.Fprintf(w, " %s", data)
		}
	}
	fmt.Fprintln(w)
}
