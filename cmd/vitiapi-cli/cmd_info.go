package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/persistorai/vitiapi/client"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server liveness and database status",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			h, err := apiClient.Health(cmd.Context())
			if err != nil {
				fatal("health", err)
			}
			if flagFmt == "table" {
				formatTable([]string{"STATUS", "VERSION", "DATABASE", "SCHEMA", "UPTIME"}, [][]string{{
					h.Status, h.Version, h.Database, itoa(h.SchemaVersion), fmt.Sprintf("%.0fs", h.UptimeSeconds),
				}})
				return
			}
			output(h, h.Status)
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts per table and the last ingestion run",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			s, err := apiClient.Stats(cmd.Context())
			if err != nil {
				fatal("stats", err)
			}
			if flagFmt == "table" {
				formatTable([]string{"TABLE", "ROWS"}, statsRows(s))
				if s.Ingestion != "" {
					fmt.Printf("\ningestion: %s\n", s.Ingestion)
				}
				return
			}
			output(s, itoa(s.Total))
		},
	}
}

// statsRows lists tables by name with the total last.
func statsRows(s *client.StatsResponse) [][]string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names)+1)
	for _, name := range names {
		rows = append(rows, []string{name, itoa(s.Tables[name])})
	}
	return append(rows, []string{"total", itoa(s.Total)})
}
