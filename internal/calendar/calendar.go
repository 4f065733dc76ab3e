// Package calendar holds the date arithmetic shared by the store, the
// aggregation packages and the UI. Calendar days are represented as
// time.Time values at midnight UTC so they compare with == and sort with
// Before/After regardless of the user's zone.
package calendar

import (
	"strings"
	"time"
)

// Layout is the on-disk and display format for calendar days.
const Layout = "2006-01-02"

// Day returns the calendar day of t (in t's own location) as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the local calendar day.
func Today() time.Time {
	return Day(time.Now())
}

// DayIn returns the calendar day of instant t as seen in loc (time.Local
// when nil).
func DayIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc))
}

// Midnight returns the instant calendar day d starts in loc (time.Local when
// nil).
func Midnight(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, dd := d.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, loc)
}

func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, strings.TrimSpace(s))
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from a to b (negative when b
// is before a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// WeekStart returns the first day of the week containing t.
func WeekStart(t time.Time, start time.Weekday) time.Time {
	d := Day(t)
	diff := (int(d.Weekday()) - int(start) + 7) % 7
	return d.AddDate(0, 0, -diff)
}

func MonthStart(t time.Time) time.Time {
	d := Day(t)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n months to t, clamping to the last day of the target month
// instead of overflowing into the next one (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	d := Day(t)
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// ParseWeekday maps a week_start setting value to a weekday. Full English
// names and three-letter abbreviations are accepted; anything else means
// Monday.
func ParseWeekday(s string) time.Weekday {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Monday
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d
		}
	}
	return time.Monday
}
