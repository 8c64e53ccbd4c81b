package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List palette windows and snap bindings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		snap, err := client.Snapshot(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(snap)
		}
		printSnapshot(os.Stdout, snap)
		return nil
	},
}

func printSnapshot(w io.Writer, snap *engine.Snapshot) {
	if len(snap.Windows) == 0 {
		infoColor.Fprintln(w, "No palette windows")
		return
	}

	keyColor.Fprint(w, "Windows")
	dimColor.Fprintf(w, " (%d, bottom to top)\n", len(snap.Windows))
	table := tablewriter.NewWriter(w)
	table.Header("Z", "ID", "State", "Frame", "Level", "Opacity", "Focus", "Flags")
	for _, row := range windowRows(snap) {
		table.Append(row)
	}
	table.Render()

	if len(snap.Bindings) > 0 {
		fmt.Fprintln(w)
		keyColor.Fprintln(w, "Snap bindings")
		table := tablewriter.NewWriter(w)
		table.Header("Follower", "Edge", "Target", "Edge", "Align", "Gap", "On hidden", "On destroyed")
		for _, b := range snap.Bindings {
			table.Append(
				b.FollowerID,
				b.FollowerEdge,
				b.TargetID,
				b.TargetEdge,
				b.Alignment,
				formatNumber(b.Gap),
				b.OnTargetHidden,
				b.OnTargetDestroyed,
			)
		}
		table.Render()
	}

	if snap.Dragging != "" {
		fmt.Fprintln(w)
		infoColor.Fprintf(w, "Dragging: %s\n", snap.Dragging)
	}
}

// windowRows renders the window table body.
func windowRows(snap *engine.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Windows))
	for _, win := range snap.Windows {
		focus := ""
		if win.ID == snap.Focused {
			focus = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(win.ZIndex),
			win.ID,
			win.State,
			formatFrame(win),
			win.Level,
			formatNumber(win.Opacity),
			focus,
			windowFlags(win),
		})
	}
	return rows
}

func formatFrame(win registry.Snapshot) string {
	f := win.Frame
	return fmt.Sprintf("%sx%s+%s+%s",
		formatNumber(f.Width), formatNumber(f.Height), formatNumber(f.X), formatNumber(f.Y))
}

func windowFlags(win registry.Snapshot) string {
	flags := ""
	add := func(set bool, flag string) {
		if !set {
			return
		}
		if flags != "" {
			flags += ","
		}
		flags += flag
	}
	add(win.Draggable, "drag")
	add(win.KeepAlive, "keep")
	add(win.Passthrough, "pass")
	add(win.FocusPolicy != "" && win.FocusPolicy != "onClick", "focus:"+win.FocusPolicy)
	add(win.Preset != "", "preset:"+win.Preset)
	return flags
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
