package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nhle/branch-tracker/internal/crossref"
	"github.com/nhle/branch-tracker/internal/model"
	"github.com/nhle/branch-tracker/internal/report"
	"github.com/nhle/branch-tracker/internal/store"
	"github.com/nhle/branch-tracker/internal/theme"
)

const (
	defaultHistoryLimit = 20
	shortIDLen          = 8
	historyTimeLayout   = "2006-01-02 15:04"
	historyDateLayout   = "2006-01-02"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous report runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s store.Store) error {
				runs, err := s.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, theme.HelpStyle.Render("No runs recorded yet."))
					return nil
				}
				fmt.Fprintln(out, renderRuns(runs))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum number of runs to show")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryStatusCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the rows of a previous run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s store.Store) error {
				run, err := s.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("run %q: %w", args[0], err)
				}
				printRun(cmd.OutOrStdout(), run)
				return nil
			})
		},
	}
}

func newHistoryStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <branch-id>",
		Short: "Show the last recorded email status of a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchID := crossref.Normalize(args[0])
			return ctx.withStore(func(s store.Store) error {
				status, err := s.LatestStatus(cmd.Context(), branchID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", branchID, theme.StatusStyle(status).Render(string(status)))
				return nil
			})
		},
	}
}

func renderRuns(runs []model.Run) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Started", "Calendar", "Quarter", "Found", "Waiting"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			shortID(r.ID),
			r.StartedAt.Local().Format(historyTimeLayout),
			r.CalendarID,
			quarterLabel(r),
			r.Found,
			r.Waiting,
		})
	}
	return tw.Render()
}

func printRun(out io.Writer, run *model.Run) {
	fmt.Fprintln(out, theme.HeaderStyle.Render("Run "+run.ID))
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	fmt.Fprintf(out, "Calendar: %s\n", run.CalendarID)
	fmt.Fprintf(out, "Quarter:  %s\n", quarterLabel(*run))
	if run.OutputPath != "" {
		fmt.Fprintf(out, "Report:   %s\n", run.OutputPath)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, report.RenderSummary(run.Rows))
}

// quarterLabel renders the half-open quarter window as inclusive dates.
func quarterLabel(r model.Run) string {
	return fmt.Sprintf("%s .. %s",
		r.QuarterStart.UTC().Format(historyDateLayout),
		r.QuarterEnd.UTC().AddDate(0, 0, -1).Format(historyDateLayout),
	)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
