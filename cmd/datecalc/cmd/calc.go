package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCalcCmd(opts *rootOptions) *cobra.Command {
	var (
		pairs   []string
		rawJSON string
	)
	cmd := &cobra.Command{
		Use:   "calc <tool>",
		Short: "Run one tool in-process and print its result",
		Example: `  datecalc calc calculate-date --arg base_date=2024-01-31 --arg operation=add --arg amount=1 --arg unit=months
  datecalc calc calculate-business-days --json '{"start_date":"2024-12-23","end_date":"2024-12-27","holidays":["2024-12-25"]}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := buildToolArgs(rawJSON, pairs)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, rpcErr := a.server.CallTool(cmd.Context(), args[0], toolArgs)
			if rpcErr != nil {
				return rpcErr
			}
			for _, c := range res.Content {
				fmt.Fprintln(cmd.OutOrStdout(), c.Text)
			}
			if res.IsError {
				return errors.Errorf("%s failed", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "arg", nil, "tool argument as key=value; amount and holidays take JSON, everything else is a string")
	cmd.Flags().StringVar(&rawJSON, "json", "", "tool arguments as one JSON object; --arg entries override it")
	return cmd
}

// jsonArgs are the tool arguments whose values are not strings. Their
// --arg values are passed as raw JSON; every other --arg value is a string.
var jsonArgs = map[string]bool{
	"amount":   true,
	"holidays": true,
}

// buildToolArgs merges a JSON object with key=value pairs.
func buildToolArgs(rawJSON string, pairs []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &out); err != nil {
			return nil, errors.Wrap(err, "--json must be a JSON object")
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("--arg %q: want key=value", p)
		}
		if jsonArgs[key] && json.Valid([]byte(value)) {
			out[key] = json.RawMessage(value)
			continue
		}
		quoted, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		out[key] = quoted
	}
	return out, nil
}
