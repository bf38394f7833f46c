package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/worker"
)

func newHoldsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holds",
		Short: "Inspect and maintain ticket holds",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Expire holds past their TTL once, outside the API's sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			n, err := worker.NewHoldSweeper(svc.Holds, clock.NewSystem(), 0, nil).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d hold(s)\n", n)
			return nil
		},
	})
	return cmd
}
