package domain

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Dates are carried as time.Time values truncated to midnight UTC; the wall-clock
// location of a provider is applied only when a date is combined with a ClockTime.

func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// DateAt returns the instant at which the wall-clock time c occurs on date d in loc.
func DateAt(d time.Time, c ClockTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

// TodayIn returns the calendar date of now as observed in loc.
func TodayIn(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// DaysBetween is the number of calendar days from start to end, inclusive.
func DaysBetween(start, end time.Time) int {
	start, end = DateOf(start), DateOf(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start)/(24*time.Hour)) + 1
}
