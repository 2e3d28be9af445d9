package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cubby/internal/history"
	"cubby/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent organization runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				printHistoryTable(stdout, resp.Runs)
				return nil
			})
			if err == nil {
				return nil
			}

			// Daemon down: read the database directly.
			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled in the configuration")
			}
			store, openErr := history.Open(cfg)
			if openErr != nil {
				return openErr
			}
			defer store.Close()

			queryCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			records, listErr := store.List(queryCtx, limit)
			if listErr != nil {
				return listErr
			}
			runs := make([]ipc.RunRecord, 0, len(records))
			for _, record := range records {
				runs = append(runs, ipc.RunRecord{
					ID:            record.ID,
					Source:        record.Source,
					Destination:   record.Destination,
					DryRun:        record.DryRun,
					Status:        record.Status,
					TotalFiles:    record.TotalFiles,
					Organized:     record.Organized,
					Uncategorized: record.Uncategorized,
					StartedAt:     record.StartedAt,
					FinishedAt:    record.FinishedAt,
				})
			}
			printHistoryTable(stdout, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func printHistoryTable(out io.Writer, runs []ipc.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.ID),
			run.Status,
			yesNo(run.DryRun),
			strconv.Itoa(run.TotalFiles),
			strconv.Itoa(run.Organized),
			strconv.Itoa(run.Uncategorized),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(run),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Status", "Dry", "Files", "Organized", "Uncat", "Started", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight},
	))
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(run ipc.RunRecord) string {
	if run.FinishedAt.IsZero() || run.FinishedAt.Before(run.StartedAt) {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
