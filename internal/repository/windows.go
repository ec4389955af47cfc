package repository

import "time"

// WindowStarts returns the lower bounds of the stats aggregation
// windows relative to now. All boundaries are UTC: "today" starts at
// UTC midnight, "week" is a rolling 7x24h window, "month" starts on
// the first of the current UTC calendar month.
func WindowStarts(now time.Time) (day, week, month time.Time) {
	now = now.UTC()
	day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	week = now.Add(-7 * 24 * time.Hour)
	month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return day, week, month
}
