package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Browse events across all organizations",
	}

	var status string
	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseEventStatus(status)
			if err != nil {
				return err
			}
			actor, err := ctx.actor(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Admin.ListAllEvents(cmd.Context(), actor, st, pagination.Params{Page: page, Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No events")
				return nil
			}
			fmt.Fprintln(out, renderEvents(result.Items))
			fmt.Fprintf(out, "Page %d of %d (%d events)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "", "Filter by status: draft, published or cancelled")
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "Events per page")
	cmd.AddCommand(list)
	return cmd
}

func parseEventStatus(raw string) (domain.EventStatus, error) {
	switch st := domain.EventStatus(raw); st {
	case "", domain.EventStatusDraft, domain.EventStatusPublished, domain.EventStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

func renderEvents(events []domain.Event) string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.ID,
			e.Name,
			string(e.Status),
			e.StartsAt.UTC().Format(time.RFC3339),
			e.Currency,
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Status", "Starts", "Currency"},
		rows,
		nil,
	)
}
