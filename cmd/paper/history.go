package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/cli"
	"github.com/Veraticus/the-paper-trail/internal/storage"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent split and extract runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to open run history: %w", err)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println(cli.FormatInfo("No runs recorded yet"))
				return nil
			}

			fmt.Println(cli.RenderTable(
				[]string{"Started", "Tool", "Status", "Docs", "Rows", "Duration", "Source"},
				historyRows(runs),
			))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "number of runs to show")
	return cmd
}

func historyRows(runs []storage.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := string(r.Status)
		switch r.Status {
		case storage.RunSucceeded:
			status = cli.SuccessStyle.Render(status)
		case storage.RunFailed:
			status = cli.ErrorStyle.Render(status)
		}

		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Tool,
			status,
			fmt.Sprintf("%d", r.Documents),
			fmt.Sprintf("%d", r.Rows),
			duration,
			r.Source,
		})
	}
	return rows
}
