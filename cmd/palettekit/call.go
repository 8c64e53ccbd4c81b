package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/1broseidon/palettekit/internal/protocol"
)

var (
	callWindowID string
	callParams   string
	callSet      []string
)

var callCmd = &cobra.Command{
	Use:   "call <service> <command>",
	Short: "Send one command to the daemon",
	Long: `Send one command to the daemon and print its result.

Parameters come from --params as a JSON object and from repeated --set
key=value flags. A --set value is decoded as JSON when it parses, so
numbers, booleans and objects work; anything else is sent as a string.

Examples:
  palettekit call window create --window menu --set width=320 --set height=240
  palettekit call visibility show --window menu --set animate=false
  palettekit call frame setPosition --window menu --params '{"x":100,"y":80}'
  palettekit call host getCapabilities`,
	Args: cobra.ExactArgs(2),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVarP(&callWindowID, "window", "w", "", "Target window id")
	callCmd.Flags().StringVar(&callParams, "params", "", "Parameters as a JSON object")
	callCmd.Flags().StringArrayVarP(&callSet, "set", "s", nil, "Parameter as key=value (repeatable)")
}

func runCall(cmd *cobra.Command, args []string) error {
	params, err := buildParams(callParams, callSet)
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cmd)
	defer cancel()

	res, err := client.Call(ctx, protocol.Command{
		ID:       uuid.NewString(),
		Service:  args[0],
		Command:  args[1],
		WindowID: callWindowID,
		Params:   params,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := printJSON(res); err != nil {
			return err
		}
		if res.Error != nil {
			return errSilent
		}
		return nil
	}
	if res.Error != nil {
		return fmt.Errorf("%s: %s", res.Error.Code, res.Error.Message)
	}
	printSuccess(fmt.Sprintf("%s/%s", args[0], args[1]))
	if res.Data != nil {
		return printJSON(res.Data)
	}
	return nil
}

// buildParams merges a JSON object with key=value pairs. Pairs win.
func buildParams(raw string, pairs []string) (protocol.Params, error) {
	params := protocol.Params{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("invalid --params: %w", err)
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		params[key] = decoded
	}
	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}
