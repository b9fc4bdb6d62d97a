package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart_SaturdayMapsBack(t *testing.T) {
	// 2025-06-07 is a Saturday
	ws := WeekStart(date(2025, 6, 7))
	assert.Equal(t, date(2025, 6, 1), ws)
}

func TestWeekStart_SundayMapsToItself(t *testing.T) {
	// 2025-06-08 is a Sunday
	ws := WeekStart(date(2025, 6, 8))
	assert.Equal(t, date(2025, 6, 8), ws)
}

func TestWeekStart_AlwaysSundayWithinSixDays(t *testing.T) {
	d := date(2024, 1, 1)
	for i := 0; i < 400; i++ {
		ws := WeekStart(d)
		require.Equal(t, time.Sunday, ws.Weekday(), "week start of %s", d)

		diff := d.Sub(ws)
		require.True(t, diff >= 0 && diff <= 6*24*time.Hour, "offset for %s was %s", d, diff)

		d = d.AddDate(0, 0, 1)
	}
}

func TestWeekStart_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, 6, 7, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, date(2025, 6, 1), WeekStart(late))
}

func TestFridayWeekEnd(t *testing.T) {
	// 2025-06-02 is a Monday; its Friday is 2025-06-06
	assert.Equal(t, date(2025, 6, 6), FridayWeekEnd(date(2025, 6, 2)))
	// Friday maps to itself
	assert.Equal(t, date(2025, 6, 6), FridayWeekEnd(date(2025, 6, 6)))
	// Saturday rolls forward to next Friday
	assert.Equal(t, date(2025, 6, 13), FridayWeekEnd(date(2025, 6, 7)))
}

func TestNextFriday_StrictlyAfter(t *testing.T) {
	// A Friday advances a full week
	assert.Equal(t, date(2025, 6, 13), NextFriday(date(2025, 6, 6)))
	// A Thursday advances one day
	assert.Equal(t, date(2025, 6, 6), NextFriday(date(2025, 6, 5)))
}

func TestFormatAndParse(t *testing.T) {
	ws := date(2025, 6, 1)
	assert.Equal(t, "2025-06-01", FormatWeek(ws))

	parsed, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, ws, parsed)

	_, err = ParseDate("06/01/2025")
	assert.Error(t, err)
}
