package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCallCmd(a *app) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "call <operation>",
		Short: "Run one operation and print the JSON result",
		Long: `Runs users, jobs, CreateUser, CreateJob or UpdateUser directly through the
registry. Arguments are given as --arg name=value and are coerced to the
declared argument types.`,
		Example: `  jobgraph call users --arg limit=5
  jobgraph call CreateUser --arg name=kwen --arg email=email@email.com --arg password=123456`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseArgs(pairs)
			if err != nil {
				return err
			}
			b, err := a.open(cmd.Context(), a.cfg.Database.AutoMigrate)
			if err != nil {
				return err
			}
			defer b.Close()

			out, err := b.reg.Dispatch(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "arg", nil, "Operation argument as name=value (repeatable)")
	return cmd
}

func parseArgs(pairs []string) (map[string]any, error) {
	raw := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected name=value", p)
		}
		raw[name] = value
	}
	return raw, nil
}
