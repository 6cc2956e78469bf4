package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanpama/jobgraph/internal/registry"
	"github.com/hanpama/jobgraph/internal/schema"
	"github.com/hanpama/jobgraph/internal/store"
)

func newSchemaCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The schema does not depend on stored data, so no connection is opened.
			reg, err := registry.New(store.NewGormStore(nil))
			if err != nil {
				return err
			}
			s, err := schema.BuildFromRegistry(reg)
			if err != nil {
				return fmt.Errorf("build schema: %w", err)
			}
			sdl := schema.Render(s)
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), sdl)
				return err
			}
			return os.WriteFile(out, []byte(sdl), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the SDL to a file instead of stdout")
	return cmd
}
