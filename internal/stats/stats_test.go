package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/store"
)

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func at(t time.Time) *time.Time { return &t }

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0.75, CompletionRate(3, 4))
	assert.Equal(t, 0.0, CompletionRate(0, 0))
	assert.Equal(t, 0.0, CompletionRate(5, -1))
}

func TestTaskStats(t *testing.T) {
	today := date(3, 10)
	tasks := []store.Task{
		{ID: 1, Status: store.StatusCompleted, DueDate: at(date(3, 1))},
		{ID: 2, Status: store.StatusPending, DueDate: at(date(3, 9))},
		{ID: 3, Status: store.StatusInProgress, DueDate: at(date(3, 10))},
		{ID: 4, Status: store.StatusPending},
	}
	got := TaskStats(tasks, today)
	assert.Equal(t, TaskSummary{Total: 4, Completed: 1, Pending: 3, Overdue: 1, CompletionRate: 0.25}, got)
	assert.Equal(t, TaskSummary{}, TaskStats(nil, today))
}

func TestHabitStats(t *testing.T) {
	habits := []store.Habit{
		{ID: 1, Name: "Read", Type: habit.Binary, Target: 1, Frequency: habit.Frequency{Kind: habit.Daily, Days: habit.AllDays}, BestStreak: 6},
		{ID: 2, Name: "Water", Type: habit.Quantity, Target: 8, Frequency: habit.Frequency{Kind: habit.Daily, Days: habit.AllDays}, BestStreak: 2},
		{ID: 3, Name: "Old", Type: habit.Binary, Target: 1, Archived: true, BestStreak: 50},
	}
	tracking := []store.HabitTracking{
		{HabitID: 1, Date: date(3, 1), Completed: true},
		{HabitID: 1, Date: date(3, 2), Completed: true},
		{HabitID: 2, Date: date(3, 1), Value: 3},
		{HabitID: 3, Date: date(3, 1), Completed: true},
	}
	got := HabitStats(habits, tracking, date(3, 1), date(3, 4), time.Monday)
	assert.Equal(t, 2, got.Active)
	assert.Equal(t, 1, got.Tracked, "water below target is not counted")
	assert.Equal(t, 6, got.BestStreak, "archived habits are ignored")
	assert.InDelta(t, 0.25, got.CompletionRate, 1e-9)
}

func TestPomodoroStats(t *testing.T) {
	sessions := []store.PomodoroSession{
		{WorkDuration: 1500, CompletedCount: 4, Status: "completed"},
		{WorkDuration: 1500, CompletedCount: 1, Status: "cancelled"},
		{WorkDuration: 600, CompletedCount: 0, Status: "working"},
	}
	got := PomodoroStats(sessions)
	assert.Equal(t, PomodoroSummary{Sessions: 3, Completed: 1, FocusSeconds: 7500}, got)
}

func TestDailyPoints(t *testing.T) {
	in := Input{
		From: date(3, 1), To: date(3, 2), Today: date(3, 2), WeekStart: time.Monday, Location: time.UTC,
		Tasks: []store.Task{
			{ID: 1, Status: store.StatusCompleted, CompletedAt: at(date(3, 1).Add(9 * time.Hour))},
			{ID: 2, Status: store.StatusCompleted, CompletedAt: at(date(2, 1))},
		},
		Habits: []store.Habit{
			{ID: 1, Type: habit.Binary, Target: 1, Frequency: habit.Frequency{Kind: habit.Daily, Days: habit.AllDays}},
			{ID: 2, Type: habit.Binary, Target: 1, Frequency: habit.Frequency{Kind: habit.Weekly, Days: habit.AllDays, TimesPerWeek: 2}},
		},
		Tracking: []store.HabitTracking{
			{HabitID: 1, Date: date(3, 1), Completed: true},
			{HabitID: 2, Date: date(3, 2), Completed: true},
		},
		Sessions: []store.PomodoroSession{
			{WorkDuration: 1500, CompletedCount: 2, StartedAt: date(3, 2).Add(14 * time.Hour)},
		},
	}
	points := DailyPoints(in)
	require.Len(t, points, 2)

	assert.Equal(t, 1, points[0].TasksCompleted)
	assert.Equal(t, 1, points[0].HabitsDone)
	assert.Equal(t, 1, points[0].HabitsDue)
	assert.Equal(t, 1.0, points[0].HabitRate())

	assert.Equal(t, 0, points[1].TasksCompleted)
	assert.Equal(t, 1, points[1].HabitsDone)
	assert.Equal(t, 2, points[1].HabitsDue)
	assert.Equal(t, int64(3000), points[1].FocusSeconds)
}

func TestDailyPointsUsesLocalDays(t *testing.T) {
	newYork := time.FixedZone("EDT", -4*60*60)
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC) // 21:00 on the 16th in New York
	in := Input{
		From: day, To: day, Today: day, WeekStart: time.Monday, Location: newYork,
		Tasks:    []store.Task{{ID: 1, Status: store.StatusCompleted, CompletedAt: at(evening)}},
		Sessions: []store.PomodoroSession{{WorkDuration: 1500, CompletedCount: 1, Status: "completed", StartedAt: evening}},
	}
	points := DailyPoints(in)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].TasksCompleted)
	assert.Equal(t, int64(1500), points[0].FocusSeconds)
	assert.Equal(t, 1, Summarize(in).Pomodoro.Sessions)

	in.Location = time.UTC
	points = DailyPoints(in)
	assert.Zero(t, points[0].TasksCompleted, "in UTC the completion is on the 17th")
}

func TestBucketWeekStartSaturday(t *testing.T) {
	// 2024-03-13 is a Wednesday; its Saturday-started week began on the 9th.
	points := []Point{
		{Date: date(3, 8), TasksCompleted: 1},
		{Date: date(3, 9), TasksCompleted: 2},
		{Date: date(3, 15), TasksCompleted: 3},
	}
	got := Bucket(points, date(3, 8), date(3, 15), ByWeek, time.Saturday)
	require.Len(t, got, 2)
	assert.True(t, got[0].Start.Equal(date(3, 2)))
	assert.Equal(t, 1, got[0].TasksCompleted)
	assert.True(t, got[1].Start.Equal(date(3, 9)))
	assert.Equal(t, 5, got[1].TasksCompleted)
}

func TestBucketByWeekZeroFills(t *testing.T) {
	points := []Point{
		{Date: date(3, 1), TasksCompleted: 1},
		{Date: date(3, 5), TasksCompleted: 2, FocusSeconds: 60},
		{Date: date(3, 6), TasksCompleted: 1},
		{Date: date(3, 20), TasksCompleted: 9},
	}
	got := Bucket(points, date(3, 1), date(3, 14), ByWeek, time.Monday)
	require.Len(t, got, 3)
	assert.True(t, got[0].Start.Equal(date(2, 26)), "week aligned to Monday")
	assert.Equal(t, 1, got[0].TasksCompleted)
	assert.Equal(t, 3, got[1].TasksCompleted)
	assert.Equal(t, int64(60), got[1].FocusSeconds)
	assert.Equal(t, 0, got[2].TasksCompleted)
}

func TestBucketWeekStartSunday(t *testing.T) {
	got := Bucket([]Point{{Date: date(3, 3), HabitsDone: 1}}, date(3, 3), date(3, 9), ByWeek, time.Sunday)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(date(3, 3)))
	assert.Equal(t, 1, got[0].HabitsDone)
}

func TestBucketByMonth(t *testing.T) {
	points := []Point{
		{Date: date(1, 20), TasksCompleted: 1},
		{Date: date(1, 31), TasksCompleted: 1},
		{Date: date(3, 2), TasksCompleted: 5},
	}
	got := Bucket(points, date(1, 15), date(3, 3), ByMonth, time.Monday)
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 0, 5}, []int{got[0].TasksCompleted, got[1].TasksCompleted, got[2].TasksCompleted})
	assert.Equal(t, "Feb 24", got[1].Label(ByMonth))
}

func TestBucketByDay(t *testing.T) {
	got := Bucket(nil, date(3, 1), date(3, 3), ByDay, time.Monday)
	require.Len(t, got, 3)
	for i, p := range got {
		assert.True(t, p.Start.Equal(date(3, 1+i)))
		assert.Zero(t, p.TasksCompleted)
	}
	assert.Nil(t, Bucket(nil, date(3, 3), date(3, 1), ByDay, time.Monday))
}

func TestSummarize(t *testing.T) {
	in := Input{
		From: date(3, 1), To: date(3, 7), Today: date(3, 7), WeekStart: time.Monday, Location: time.UTC,
		Tasks: []store.Task{
			{ID: 1, Status: store.StatusCompleted, CompletedAt: at(date(3, 2))},
			{ID: 2, Status: store.StatusPending, DueDate: at(date(3, 3))},
		},
		Sessions: []store.PomodoroSession{
			{WorkDuration: 1500, CompletedCount: 1, Status: "completed", StartedAt: date(3, 4)},
			{WorkDuration: 1500, CompletedCount: 3, Status: "completed", StartedAt: date(2, 1)},
		},
	}
	s := Summarize(in)
	assert.Len(t, s.Daily, 7)
	assert.Equal(t, 2, s.Tasks.Total)
	assert.Equal(t, 1, s.Tasks.Overdue)
	assert.Equal(t, PomodoroSummary{Sessions: 1, Completed: 1, FocusSeconds: 1500}, s.Pomodoro)
	assert.Contains(t, s.Text(), "2024-03-01 to 2024-03-07")
	assert.Contains(t, s.Text(), "25m focus")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1h 05m", FormatDuration(3900))
	assert.Equal(t, "25m", FormatDuration(1500))
	assert.Equal(t, "50%", Percent(0.5))

	g, err := ParseGranularity("Week")
	require.NoError(t, err)
	assert.Equal(t, ByMonth, g.Next())
	_, err = ParseGranularity("year")
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	today := date(3, 13) // Wednesday

	from, to := Range(ByDay, today, 0, time.Monday)
	assert.Equal(t, date(2, 29), from)
	assert.Equal(t, date(3, 13), to)

	from, to = Range(ByDay, today, 1, time.Monday)
	assert.Equal(t, date(2, 15), from)
	assert.Equal(t, date(2, 28), to)

	from, to = Range(ByWeek, today, 0, time.Monday)
	assert.Equal(t, date(1, 22), from)
	assert.Equal(t, date(3, 17), to)
	assert.Len(t, Bucket(nil, from, to, ByWeek, time.Monday), 8)

	from, to = Range(ByMonth, today, 0, time.Monday)
	assert.Equal(t, time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, date(3, 31), to)
	assert.Len(t, Bucket(nil, from, to, ByMonth, time.Monday), 6)
}
