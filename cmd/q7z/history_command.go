package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"q7z/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent extraction jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(records))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	return cmd
}

func renderHistory(records []history.Record) string {
	columns := []column{
		{title: "Started"},
		{title: "Archive", maxWidth: 40},
		{title: "Output", maxWidth: 40},
		{title: "Status"},
		{title: "Progress", alignRight: true},
		{title: "Files", alignRight: true},
		{title: "Duration", alignRight: true},
		{title: "Detail", maxWidth: 60},
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			filepath.Base(rec.Request.Input),
			rec.Request.Output,
			string(rec.Status),
			formatPercent(rec.LastPercent),
			strconv.Itoa(rec.Files),
			formatDuration(rec),
			historyDetail(rec),
		})
	}
	return renderTable(columns, rows)
}

func formatPercent(p int) string {
	if p < 0 {
		return "-"
	}
	return strconv.Itoa(p) + "%"
}

func formatDuration(rec history.Record) string {
	if rec.FinishedAt == nil {
		return "-"
	}
	return rec.Duration().Round(time.Second).String()
}

func historyDetail(rec history.Record) string {
	if rec.Error == "" {
		return ""
	}
	if rec.ExitCode != nil {
		return fmt.Sprintf("exit %d: %s", *rec.ExitCode, rec.Error)
	}
	return rec.Error
}
