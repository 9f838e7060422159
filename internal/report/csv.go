package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/nhle/branch-tracker/internal/model"
)

// CSVHeader is the first line of every report file.
var CSVHeader = []string{"Event Title", "Event Date", "Branch ID", "Email Status"}

// WriteCSV writes rows with CSVHeader to w.
func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.EventTitle, r.EventDate, r.BranchID, string(r.Status)}); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", r.BranchID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes the report to path, replacing any existing file.
func WriteCSVFile(path string, rows []model.ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report %s: %w", path, err)
	}
	return nil
}
