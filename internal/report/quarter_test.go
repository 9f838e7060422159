package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuarterBounds(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		start, end time.Time
	}{
		{
			name:  "first quarter",
			now:   time.Date(2024, 2, 15, 13, 45, 0, 0, time.UTC),
			start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "quarter start day",
			now:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			start: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "last day of quarter",
			now:   time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC),
			start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "fourth quarter rolls over the year",
			now:   time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC),
			start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "local date is used",
			now:   time.Date(2024, 12, 31, 23, 0, 0, 0, time.FixedZone("ICT", 7*3600)),
			start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := QuarterBounds(tt.now)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}
