package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/recur"
)

type Category struct {
	ID        int64
	Name      string
	Color     string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Tag struct {
	ID    int64
	Name  string
	Color string
}

type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

var priorityNames = []string{"none", "low", "medium", "high"}

func (p Priority) String() string {
	if p < PriorityNone || p > PriorityHigh {
		return "none"
	}
	return priorityNames[p]
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

type Task struct {
	ID          int64
	UID         string
	Title       string
	Description string
	CategoryID  *int64
	Priority    Priority
	Status      Status
	StartDate   *time.Time
	DueDate     *time.Time
	Recurrence  recur.Recurrence
	CompletedAt *time.Time
	Subtasks    []Subtask
	Tags        []Tag
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Task) Done() bool { return t.Status == StatusCompleted }

// SubtaskProgress returns completed and total subtask counts.
func (t Task) SubtaskProgress() (done, total int) {
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Title       string
	Description string
	CategoryID  *int64
	Priority    Priority
	StartDate   *time.Time
	DueDate     *time.Time
	Recurrence  recur.Recurrence
	TagIDs      []int64
}

type Subtask struct {
	ID        int64
	TaskID    int64
	Title     string
	Completed bool
	Position  int
}

type Habit struct {
	ID            int64
	UID           string
	Name          string
	Description   string
	CategoryID    *int64
	Color         string
	Type          habit.Type
	Target        float64
	Unit          string
	Frequency     habit.Frequency
	CurrentStreak int
	BestStreak    int
	Archived      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Rule returns the part of the habit used for streak and progress rules.
func (h Habit) Rule() habit.Rule {
	return habit.Rule{Type: h.Type, Target: h.Target, Frequency: h.Frequency}
}

// ProgressLabel renders the day's progress as "3/8 glasses", "12/30 min",
// "done" or "not yet". rec may be nil.
func (h Habit) ProgressLabel(rec *HabitTracking) string {
	var r HabitTracking
	if rec != nil {
		r = *rec
	}
	switch h.Type {
	case habit.Quantity:
		return fmt.Sprintf("%s/%s %s", formatFloat(r.Value), formatFloat(h.Target), h.Unit)
	case habit.Time:
		return fmt.Sprintf("%d/%d min", r.Duration/60, int64(h.Target)/60)
	}
	if r.Completed {
		return "done"
	}
	return "not yet"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type HabitInput struct {
	Name        string
	Description string
	CategoryID  *int64
	Color       string
	Type        habit.Type
	Target      float64
	Unit        string
	Frequency   habit.Frequency
}

type HabitTracking struct {
	ID        int64
	HabitID   int64
	Date      time.Time
	Completed bool
	Value     float64
	Duration  int64 // seconds
	Note      string
}

func (t HabitTracking) Record() habit.Record {
	return habit.Record{Date: t.Date, Completed: t.Completed, Value: t.Value, Duration: t.Duration}
}

// TrackInput is what a user records for a habit on one day. Completed is
// only meaningful for binary habits; other types derive it from the value.
type TrackInput struct {
	Completed bool
	Value     float64
	Duration  int64
	Note      string
}

// TrackingFilter is used to filter tracking records in queries.
type TrackingFilter struct {
	HabitID *int64
	From    *time.Time
	To      *time.Time // inclusive
}

type PomodoroSession struct {
	ID             int64
	TaskID         *int64
	WorkDuration   int
	BreakDuration  int
	CompletedCount int
	TargetCount    int
	Status         string // working, short_break, long_break, completed, cancelled
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// FocusSeconds is the work time of the finished work phases.
func (p PomodoroSession) FocusSeconds() int64 {
	return int64(p.WorkDuration) * int64(p.CompletedCount)
}

type Setting struct {
	Key   string
	Value string
}

// TaskQuery narrows ListTasks at the SQL level. Finer filtering and sorting
// is done in memory by the tasklist package.
type TaskQuery struct {
	Status         *Status
	CategoryID     *int64
	IncludeDone    bool
	DueOnOrBefore  *time.Time
	CompletedSince *time.Time
}
