package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanpama/jobgraph/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo users and jobs",
		Long: `Inserts the demo users and their jobs through the regular CreateUser and
CreateJob operations. Records that already exist are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.open(cmd.Context(), a.cfg.Database.AutoMigrate)
			if err != nil {
				return err
			}
			defer b.Close()
			res, err := seed.Run(cmd.Context(), b.reg, a.logger, seed.Users, seed.Jobs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d jobs\n", res.Users, res.Jobs)
			return nil
		},
	}
}
