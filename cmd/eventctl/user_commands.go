package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserPromoteCommand(ctx))
	cmd.AddCommand(newUserRevokeSessionsCommand(ctx))
	return cmd
}

func newUserPromoteCommand(ctx *commandContext) *cobra.Command {
	var demote bool

	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant platform admin rights to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			user, err := svc.Auth.SetAdmin(cmd.Context(), args[0], !demote)
			if err != nil {
				return fmt.Errorf("update %s: %w", args[0], err)
			}
			state := "is now an admin"
			if !user.IsAdmin {
				state = "is no longer an admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s; existing sessions were revoked\n", user.Email, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&demote, "demote", false, "Remove admin rights instead")
	return cmd
}

func newUserRevokeSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <email>",
		Short: "Log a user out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			n, err := svc.Auth.RevokeAllByEmail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("revoke sessions for %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %d session(s) for %s\n", n, args[0])
			return nil
		},
	}
}
