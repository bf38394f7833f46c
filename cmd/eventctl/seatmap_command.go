package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/obichijioke/eventapp/internal/domain"
)

func newSeatmapCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seatmap",
		Short: "Manage event seatmaps",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <event-id> <file.yaml>",
		Short: "Replace a draft event's seats from a YAML layout",
		Example: `  eventctl --as admin@example.com seatmap import 7d1c... hall.yaml

  # hall.yaml
  sections:
    - zone_id: 3f2a...
      name: A
      rows:
        - {label: "1", seats: 12}
        - {label: "2", seats: 14}`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := loadLayout(args[1])
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
			seats, err := svc.Seatmaps.ReplaceSeatmap(cmd.Context(), actor, args[0], layout)
			if err != nil {
				return fmt.Errorf("import seatmap: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSeatSummary(seats))
			return nil
		},
	})
	return cmd
}

func loadLayout(path string) (domain.SeatmapLayout, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.SeatmapLayout{}, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()
	return decodeLayout(f)
}

func decodeLayout(r io.Reader) (domain.SeatmapLayout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.SeatmapLayout{}, fmt.Errorf("read layout: %w", err)
	}

	var layout domain.SeatmapLayout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&layout); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.SeatmapLayout{}, fmt.Errorf("%w: layout file is empty", domain.ErrInvalidSeatmap)
		}
		return domain.SeatmapLayout{}, fmt.Errorf("parse layout: %w", err)
	}
	if len(layout.Sections) == 0 {
		return domain.SeatmapLayout{}, fmt.Errorf("%w: no sections", domain.ErrInvalidSeatmap)
	}
	return layout, nil
}

func renderSeatSummary(seats []domain.Seat) string {
	perZone := make(map[string]int)
	for _, s := range seats {
		perZone[s.ZoneID]++
	}
	zones := make([]string, 0, len(perZone))
	for z := range perZone {
		zones = append(zones, z)
	}
	sort.Strings(zones)

	rows := make([][]string, 0, len(zones)+1)
	for _, z := range zones {
		rows = append(rows, []string{z, strconv.Itoa(perZone[z])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(len(seats))})
	return renderTable([]string{"Zone", "Seats"}, rows, []columnAlignment{alignLeft, alignRight})
}
