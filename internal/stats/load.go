package stats

import (
	"fmt"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/store"
)

// Load reads everything Summarize needs for [from, to] from the store.
// Days are local calendar days.
func Load(s *store.Store, from, to, today time.Time) (Input, error) {
	return LoadIn(s, from, to, today, time.Local)
}

// LoadIn is Load with days taken in loc.
func LoadIn(s *store.Store, from, to, today time.Time, loc *time.Location) (Input, error) {
	from, to = calendar.Day(from), calendar.Day(to)
	in := Input{From: from, To: to, Today: calendar.Day(today), WeekStart: s.WeekStart(), Location: loc}

	var err error
	if in.Tasks, err = s.ListTasks(store.TaskQuery{IncludeDone: true}); err != nil {
		return in, fmt.Errorf("load tasks: %w", err)
	}
	if in.Habits, err = s.ListHabits(false); err != nil {
		return in, fmt.Errorf("load habits: %w", err)
	}
	if in.Tracking, err = s.ListTracking(store.TrackingFilter{From: &from, To: &to}); err != nil {
		return in, fmt.Errorf("load tracking: %w", err)
	}
	if in.Sessions, err = s.ListPomodoros(calendar.Midnight(from, loc), calendar.Midnight(calendar.AddDays(to, 1), loc)); err != nil {
		return in, fmt.Errorf("load pomodoros: %w", err)
	}
	return in, nil
}
