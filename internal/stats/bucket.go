package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
)

// Point is one day of activity.
type Point struct {
	Date           time.Time
	TasksCompleted int
	HabitsDone     int
	HabitsDue      int
	FocusSeconds   int64
}

// HabitRate is the share of due habits that were done.
func (p Point) HabitRate() float64 {
	return CompletionRate(p.HabitsDone, p.HabitsDue)
}

type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
)

var Granularities = []Granularity{ByDay, ByWeek, ByMonth}

func ParseGranularity(s string) (Granularity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, g := range Granularities {
		if string(g) == s {
			return g, nil
		}
	}
	return ByDay, fmt.Errorf("unknown granularity %q", s)
}

func (g Granularity) Next() Granularity {
	switch g {
	case ByDay:
		return ByWeek
	case ByWeek:
		return ByMonth
	}
	return ByDay
}

// Period is a bucket of summed points starting at Start.
type Period struct {
	Start time.Time
	Point
}

// Label is a short axis label for the period.
func (p Period) Label(g Granularity) string {
	switch g {
	case ByWeek:
		return p.Start.Format("Jan 2")
	case ByMonth:
		return p.Start.Format("Jan 06")
	}
	return p.Start.Format("01/02")
}

func periodStart(t time.Time, g Granularity, weekStart time.Weekday) time.Time {
	switch g {
	case ByWeek:
		return calendar.WeekStart(t, weekStart)
	case ByMonth:
		return calendar.MonthStart(t)
	}
	return calendar.Day(t)
}

func nextPeriod(t time.Time, g Granularity) time.Time {
	switch g {
	case ByWeek:
		return calendar.AddDays(t, 7)
	case ByMonth:
		return calendar.AddMonths(t, 1)
	}
	return calendar.AddDays(t, 1)
}

// Bucket sums points into periods covering [from, to] in chronological
// order. Periods without points are present with zero values; points outside
// the range are ignored.
func Bucket(points []Point, from, to time.Time, g Granularity, weekStart time.Weekday) []Period {
	from, to = calendar.Day(from), calendar.Day(to)
	if to.Before(from) {
		return nil
	}
	var periods []Period
	index := make(map[time.Time]int)
	for start := periodStart(from, g, weekStart); !start.After(to); start = nextPeriod(start, g) {
		index[start] = len(periods)
		periods = append(periods, Period{Start: start, Point: Point{Date: start}})
	}
	for _, p := range points {
		d := calendar.Day(p.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		i, ok := index[periodStart(d, g, weekStart)]
		if !ok {
			continue
		}
		b := &periods[i]
		b.TasksCompleted += p.TasksCompleted
		b.HabitsDone += p.HabitsDone
		b.HabitsDue += p.HabitsDue
		b.FocusSeconds += p.FocusSeconds
	}
	return periods
}

// Range returns the inclusive [from, to] window the chart shows for g,
// shifted back offset whole windows from the one containing today: 14 days,
// 8 weeks or 6 months.
func Range(g Granularity, today time.Time, offset int, weekStart time.Weekday) (from, to time.Time) {
	today = calendar.Day(today)
	switch g {
	case ByWeek:
		last := calendar.AddDays(calendar.WeekStart(today, weekStart), -7*8*offset)
		return calendar.AddDays(last, -7*7), calendar.AddDays(last, 6)
	case ByMonth:
		last := calendar.AddMonths(calendar.MonthStart(today), -6*offset)
		return calendar.AddMonths(last, -5), calendar.AddDays(calendar.AddMonths(last, 1), -1)
	}
	to = calendar.AddDays(today, -14*offset)
	return calendar.AddDays(to, -13), to
}
