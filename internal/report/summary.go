package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/nhle/branch-tracker/internal/model"
)

// RenderSummary renders rows as a console table with status totals.
func RenderSummary(rows []model.ReportRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Event Title", "Event Date", "Branch ID", "Email Status"})

	for i, r := range rows {
		tw.AppendRow(table.Row{i + 1, r.EventTitle, r.EventDate, r.BranchID, string(r.Status)})
	}

	found, waiting := model.CountStatuses(rows)
	tw.AppendFooter(table.Row{"", "", "", "Found / Waiting", fmt.Sprintf("%d / %d", found, waiting)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 48},
	})

	return tw.Render()
}
