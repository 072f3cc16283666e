package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clusterops/maintenanced/internal/action"
)

type admitOptions struct {
	extras      []string
	properties  string
	executeNow  bool
}

func newAdmitCmd(flags *rootFlags) *cobra.Command {
	opts := admitOptions{}

	cmd := &cobra.Command{
		Use:   "admit <name>",
		Short: "Admit a single action and print its resulting status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}

			pairs := []action.Pair{{Key: action.NameKey, Value: args[0]}}
			for _, kv := range opts.extras {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --extra %q, want key=value", kv)
				}
				pairs = append(pairs, action.Pair{Key: k, Value: v})
			}
			description := action.NewDescription(pairs...)

			var properties map[string]any
			if opts.properties != "" {
				if err := json.Unmarshal([]byte(opts.properties), &properties); err != nil {
					return fmt.Errorf("parsing --properties: %w", err)
				}
			}

			result, act, err := a.scheduler.AddAction(description, properties, opts.executeNow)
			if err != nil {
				return err
			}

			out := map[string]any{
				"id":     act.ID(),
				"state":  act.State().String(),
				"result": result.Code.String(),
			}
			enc, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(enc))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.extras, "extra", nil, "Extra description key=value pair (repeatable)")
	cmd.Flags().StringVar(&opts.properties, "properties", "", "JSON-encoded properties blob")
	cmd.Flags().BoolVar(&opts.executeNow, "execute-now", true, "Run the action synchronously on this goroutine before returning")

	return cmd
}
