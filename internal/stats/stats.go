// Package stats aggregates tasks, habit tracking and pomodoro sessions into
// the numbers shown on the statistics screen and by the stats command.
package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/store"
	"github.com/sadopc/habitask/internal/tasklist"
)

type TaskSummary struct {
	Total          int
	Completed      int
	Pending        int
	Overdue        int
	CompletionRate float64
}

type HabitSummary struct {
	Active         int
	Tracked        int
	CompletionRate float64
	BestStreak     int
}

type PomodoroSummary struct {
	Sessions     int
	Completed    int
	FocusSeconds int64
}

// Summary is the computed statistic summary for a date range.
type Summary struct {
	From     time.Time
	To       time.Time
	Tasks    TaskSummary
	Habits   HabitSummary
	Pomodoro PomodoroSummary
	Daily    []Point
}

// Input is everything Summarize needs. Tasks should include completed ones.
type Input struct {
	From      time.Time
	To        time.Time // inclusive
	Today     time.Time
	WeekStart time.Weekday
	Tasks     []store.Task
	Habits    []store.Habit
	Tracking  []store.HabitTracking
	Sessions  []store.PomodoroSession

	// Location decides which calendar day a timestamp falls on; nil means
	// time.Local.
	Location *time.Location
}

// CompletionRate returns completed/total, or 0 when there is nothing to
// complete.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

func TaskStats(tasks []store.Task, today time.Time) TaskSummary {
	var s TaskSummary
	for _, t := range tasks {
		s.Total++
		if t.Done() {
			s.Completed++
			continue
		}
		s.Pending++
		if tasklist.IsOverdue(t, today) {
			s.Overdue++
		}
	}
	s.CompletionRate = CompletionRate(s.Completed, s.Total)
	return s
}

// byHabit groups tracking records per habit.
func byHabit(tracking []store.HabitTracking) map[int64][]habit.Record {
	out := make(map[int64][]habit.Record)
	for _, t := range tracking {
		out[t.HabitID] = append(out[t.HabitID], t.Record())
	}
	return out
}

// HabitStats summarises active habits over [from, to]. The completion rate
// is the mean of each habit's own rate.
func HabitStats(habits []store.Habit, tracking []store.HabitTracking, from, to time.Time, weekStart time.Weekday) HabitSummary {
	var s HabitSummary
	records := byHabit(tracking)
	from, to = calendar.Day(from), calendar.Day(to)

	var rateSum float64
	for _, h := range habits {
		if h.Archived {
			continue
		}
		s.Active++
		if h.BestStreak > s.BestStreak {
			s.BestStreak = h.BestStreak
		}
		rule := h.Rule()
		recs := records[h.ID]
		for _, r := range recs {
			d := calendar.Day(r.Date)
			if !d.Before(from) && !d.After(to) && rule.Met(r) {
				s.Tracked++
				break
			}
		}
		rateSum += habit.CompletionRate(rule, recs, from, to, weekStart)
	}
	if s.Active > 0 {
		s.CompletionRate = rateSum / float64(s.Active)
	}
	return s
}

func PomodoroStats(sessions []store.PomodoroSession) PomodoroSummary {
	var s PomodoroSummary
	for _, p := range sessions {
		s.Sessions++
		if p.Status == "completed" {
			s.Completed++
		}
		s.FocusSeconds += p.FocusSeconds()
	}
	return s
}

// DailyPoints lays out one point per day in [from, to]. Weekly habits only
// count on days they were done, so the daily rate never exceeds 1.
func DailyPoints(in Input) []Point {
	from, to := calendar.Day(in.From), calendar.Day(in.To)
	if to.Before(from) {
		return nil
	}
	n := calendar.DaysBetween(from, to) + 1
	points := make([]Point, n)
	for i := range points {
		points[i].Date = calendar.AddDays(from, i)
	}
	at := func(t time.Time) *Point {
		i := calendar.DaysBetween(from, t)
		if i < 0 || i >= n {
			return nil
		}
		return &points[i]
	}

	for _, t := range in.Tasks {
		if t.CompletedAt == nil {
			continue
		}
		if p := at(calendar.DayIn(*t.CompletedAt, in.Location)); p != nil {
			p.TasksCompleted++
		}
	}
	for _, s := range in.Sessions {
		if p := at(calendar.DayIn(s.StartedAt, in.Location)); p != nil {
			p.FocusSeconds += s.FocusSeconds()
		}
	}

	records := byHabit(in.Tracking)
	for _, h := range in.Habits {
		if h.Archived {
			continue
		}
		rule := h.Rule()
		met := make(map[time.Time]bool)
		for _, r := range records[h.ID] {
			if rule.Met(r) {
				met[calendar.Day(r.Date)] = true
			}
		}
		for i := range points {
			done := met[points[i].Date]
			weekly := h.Frequency.Kind == habit.Weekly
			if done {
				points[i].HabitsDone++
			}
			if (weekly && done) || (!weekly && rule.IsDue(points[i].Date)) {
				points[i].HabitsDue++
			}
		}
	}
	return points
}

// Summarize builds the full summary for in.From..in.To.
func Summarize(in Input) Summary {
	from, to := calendar.Day(in.From), calendar.Day(in.To)
	var sessions []store.PomodoroSession
	for _, s := range in.Sessions {
		d := calendar.DayIn(s.StartedAt, in.Location)
		if !d.Before(from) && !d.After(to) {
			sessions = append(sessions, s)
		}
	}
	return Summary{
		From:     from,
		To:       to,
		Tasks:    TaskStats(in.Tasks, in.Today),
		Habits:   HabitStats(in.Habits, in.Tracking, from, to, in.WeekStart),
		Pomodoro: PomodoroStats(sessions),
		Daily:    DailyPoints(in),
	}
}

// Text renders the summary as plain text for the clipboard and the CLI.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Statistics %s to %s\n", calendar.Format(s.From), calendar.Format(s.To))
	fmt.Fprintf(&b, "Tasks:    %d total, %d done, %d pending, %d overdue (%s)\n",
		s.Tasks.Total, s.Tasks.Completed, s.Tasks.Pending, s.Tasks.Overdue, Percent(s.Tasks.CompletionRate))
	fmt.Fprintf(&b, "Habits:   %d active, %d tracked, best streak %d (%s)\n",
		s.Habits.Active, s.Habits.Tracked, s.Habits.BestStreak, Percent(s.Habits.CompletionRate))
	fmt.Fprintf(&b, "Pomodoro: %d sessions, %d completed, %s focus\n",
		s.Pomodoro.Sessions, s.Pomodoro.Completed, FormatDuration(s.Pomodoro.FocusSeconds))
	return b.String()
}

func Percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

// FormatDuration renders seconds as "1h 05m" or "25m".
func FormatDuration(secs int64) string {
	d := time.Duration(secs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
