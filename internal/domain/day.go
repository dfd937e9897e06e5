package domain

import "time"

// DayLayout is the calendar-day format used for planned dates.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD calendar day in UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, Invalid("date", "%q is not a YYYY-MM-DD day", s)
	}
	return t, nil
}

// AddDays returns day shifted by n calendar days. day must already be valid.
func AddDays(day string, n int) string {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, n).Format(DayLayout)
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b string) int {
	ta, errA := time.Parse(DayLayout, a)
	tb, errB := time.Parse(DayLayout, b)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// Weekday returns the weekday of a valid day.
func Weekday(day string) time.Weekday {
	t, _ := time.Parse(DayLayout, day)
	return t.Weekday()
}
