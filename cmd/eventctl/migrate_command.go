package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obichijioke/eventapp/migrations"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			if err := migrations.Apply(cmd.Context(), pool); err != nil {
				return err
			}
			latest, err := migrations.Latest()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database at migration %d\n", latest)
			return nil
		},
	}
}
