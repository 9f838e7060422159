package report

import "github.com/nhle/branch-tracker/internal/model"

// Change is a branch whose status differs from the previous run.
type Change struct {
	BranchID string
	EventKey string
	From, To model.Status
}

func rowKey(r model.ReportRow) string {
	return r.EventTitle + "\x00" + r.EventDate + "\x00" + r.BranchID
}

// Changes compares current rows with the rows of a previous run and
// returns the (event, branch) pairs whose status changed, in current
// row order. Pairs absent from the previous run are not reported.
func Changes(previous, current []model.ReportRow) []Change {
	before := make(map[string]model.Status, len(previous))
	for _, r := range previous {
		before[rowKey(r)] = r.Status
	}

	var changes []Change
	for _, r := range current {
		prev, ok := before[rowKey(r)]
		if !ok || prev == r.Status {
			continue
		}
		changes = append(changes, Change{
			BranchID: r.BranchID,
			EventKey: r.EventTitle + " (" + r.EventDate + ")",
			From:     prev,
			To:       r.Status,
		})
	}
	return changes
}
