// Package calendar provides the weekly bucketing convention shared by
// the news analytics pipeline and the direction predictor.
package calendar

import "time"

// WeekFormat is the wire format of a week bucket
const WeekFormat = "2006-01-02"

// WeekStart returns the Sunday on or before d, truncated to midnight
// in d's location. Every component buckets articles with this function.
func WeekStart(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// FridayWeekEnd returns the Friday on or after d. The predictor
// resamples daily rows to the last observation per Friday-anchored week.
func FridayWeekEnd(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

// NextFriday returns the first Friday strictly after d
func NextFriday(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}

// FormatWeek renders a week bucket as YYYY-MM-DD
func FormatWeek(weekStart time.Time) string {
	return weekStart.Format(WeekFormat)
}

// ParseDate parses a YYYY-MM-DD date parameter
func ParseDate(s string) (time.Time, error) {
	return time.Parse(WeekFormat, s)
}
