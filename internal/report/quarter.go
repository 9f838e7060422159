package report

import "time"

// QuarterBounds returns the half-open [start, end) UTC window of the
// calendar quarter containing now's date. Quarters start in January,
// April, July and October.
func QuarterBounds(now time.Time) (start, end time.Time) {
	startMonth := time.Month((int(now.Month())-1)/3*3 + 1)
	start = time.Date(now.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes month 13 into January of the next year.
	end = time.Date(now.Year(), startMonth+3, 1, 0, 0, 0, 0, time.UTC)
	return start, end
}
