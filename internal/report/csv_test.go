package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/branch-tracker/internal/model"
)

var sampleRows = []model.ReportRow{
	{EventTitle: "Opening B 071", EventDate: "2024-03-01", BranchID: "B071", Status: model.StatusFound},
	{EventTitle: "Audit, \"north\"", EventDate: "2024-03-05T10:00:00Z", BranchID: "B300", Status: model.StatusWaiting},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows))

	want := "Event Title,Event Date,Branch ID,Email Status\n" +
		"Opening B 071,2024-03-01,B071,Found\n" +
		"\"Audit, \"\"north\"\"\",2024-03-05T10:00:00Z,B300,Waiting\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteCSVFile(path, sampleRows[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Event Title,"))
	assert.Contains(t, string(data), "B071,Found")

	assert.Error(t, WriteCSVFile(filepath.Join(t.TempDir(), "missing", "r.csv"), sampleRows))
}
