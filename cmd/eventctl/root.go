package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var operator string

	ctx := newCommandContext(&operator)

	rootCmd := &cobra.Command{
		Use:           "eventctl",
		Short:         "Operator tools for the event ticketing API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&operator, "as", "", "Email of the admin user the command acts as")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newUserCommand(ctx))
	rootCmd.AddCommand(newHoldsCommand(ctx))
	rootCmd.AddCommand(newSeatmapCommand(ctx))
	rootCmd.AddCommand(newEventsCommand(ctx))

	return rootCmd
}
