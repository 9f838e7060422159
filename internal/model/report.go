package model

import "time"

// Status is the email confirmation state of a branch identifier.
type Status string

// Report row statuses.
const (
	StatusFound   Status = "Found"
	StatusWaiting Status = "Waiting"
)

// StatusFor maps a match result to a report status.
func StatusFor(found bool) Status {
	if found {
		return StatusFound
	}
	return StatusWaiting
}

// ReportRow is one (event, branch identifier) pair and its email status.
type ReportRow struct {
	EventTitle string `json:"event_title" db:"event_title"`
	EventDate  string `json:"event_date" db:"event_date"`
	BranchID   string `json:"branch_id" db:"branch_id"`
	Status     Status `json:"status" db:"status"`
}

// Run is a persisted report generation.
type Run struct {
	ID           string    `json:"id" db:"id"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	CalendarID   string    `json:"calendar_id" db:"calendar_id"`
	QuarterStart time.Time `json:"quarter_start" db:"quarter_start"`
	QuarterEnd   time.Time `json:"quarter_end" db:"quarter_end"`
	OutputPath   string    `json:"output_path" db:"output_path"`
	Found        int       `json:"found" db:"found"`
	Waiting      int       `json:"waiting" db:"waiting"`

	// Rows is populated by GetRun; list queries leave it empty.
	Rows []ReportRow `json:"rows,omitempty" db:"-"`
}

// CountStatuses returns the number of found and waiting rows.
func CountStatuses(rows []ReportRow) (found, waiting int) {
	for _, r := range rows {
		if r.Status == StatusFound {
			found++
		} else {
			waiting++
		}
	}
	return found, waiting
}
