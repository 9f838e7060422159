package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/branch-tracker/internal/model"
)

func TestChanges(t *testing.T) {
	previous := []model.ReportRow{
		{EventTitle: "Opening", EventDate: "2024-03-01", BranchID: "B071", Status: model.StatusWaiting},
		{EventTitle: "Audit", EventDate: "2024-03-05", BranchID: "B300", Status: model.StatusWaiting},
	}
	current := []model.ReportRow{
		{EventTitle: "Opening", EventDate: "2024-03-01", BranchID: "B071", Status: model.StatusFound},
		{EventTitle: "Audit", EventDate: "2024-03-05", BranchID: "B300", Status: model.StatusWaiting},
		{EventTitle: "New", EventDate: "2024-03-09", BranchID: "B400", Status: model.StatusFound},
	}

	changes := Changes(previous, current)

	assert.Equal(t, []Change{{
		BranchID: "B071",
		EventKey: "Opening (2024-03-01)",
		From:     model.StatusWaiting,
		To:       model.StatusFound,
	}}, changes)

	assert.Empty(t, Changes(nil, current))
}
