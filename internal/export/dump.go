package export

import (
	"time"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/store"
)

// Dump is the full-database export shared by the JSON and YAML writers.
type Dump struct {
	ExportedAt string         `json:"exported_at" yaml:"exported_at"`
	Categories []dumpCategory `json:"categories" yaml:"categories"`
	Tags       []dumpTag      `json:"tags" yaml:"tags"`
	Tasks      []dumpTask     `json:"tasks" yaml:"tasks"`
	Habits     []dumpHabit    `json:"habits" yaml:"habits"`
	Tracking   []dumpTracking `json:"tracking" yaml:"tracking"`
	Pomodoro   []dumpPomodoro `json:"pomodoro" yaml:"pomodoro"`
}

type dumpCategory struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Color    string `json:"color" yaml:"color"`
	Archived bool   `json:"archived,omitempty" yaml:"archived,omitempty"`
}

type dumpTag struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

type dumpSubtask struct {
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
}

type dumpTask struct {
	ID          int64         `json:"id" yaml:"id"`
	UID         string        `json:"uid" yaml:"uid"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	CategoryID  *int64        `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Priority    string        `json:"priority" yaml:"priority"`
	Status      string        `json:"status" yaml:"status"`
	StartDate   string        `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	DueDate     string        `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Recurrence  string        `json:"recurrence" yaml:"recurrence"`
	Interval    int           `json:"recurrence_interval,omitempty" yaml:"recurrence_interval,omitempty"`
	CompletedAt string        `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Subtasks    []dumpSubtask `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
	CreatedAt   string        `json:"created_at" yaml:"created_at"`
}

type dumpHabit struct {
	ID            int64   `json:"id" yaml:"id"`
	UID           string  `json:"uid" yaml:"uid"`
	Name          string  `json:"name" yaml:"name"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Color         string  `json:"color" yaml:"color"`
	Type          string  `json:"type" yaml:"type"`
	Target        float64 `json:"target" yaml:"target"`
	Unit          string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Frequency     string  `json:"frequency" yaml:"frequency"`
	Days          string  `json:"days" yaml:"days"`
	TimesPerWeek  int     `json:"times_per_week,omitempty" yaml:"times_per_week,omitempty"`
	CurrentStreak int     `json:"current_streak" yaml:"current_streak"`
	BestStreak    int     `json:"best_streak" yaml:"best_streak"`
	Archived      bool    `json:"archived,omitempty" yaml:"archived,omitempty"`
}

type dumpTracking struct {
	HabitID   int64   `json:"habit_id" yaml:"habit_id"`
	Date      string  `json:"date" yaml:"date"`
	Completed bool    `json:"completed" yaml:"completed"`
	Value     float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Duration  int64   `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	Note      string  `json:"note,omitempty" yaml:"note,omitempty"`
}

type dumpPomodoro struct {
	ID             int64  `json:"id" yaml:"id"`
	TaskID         *int64 `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	WorkSeconds    int    `json:"work_seconds" yaml:"work_seconds"`
	BreakSeconds   int    `json:"break_seconds" yaml:"break_seconds"`
	CompletedCount int    `json:"completed_count" yaml:"completed_count"`
	TargetCount    int    `json:"target_count" yaml:"target_count"`
	Status         string `json:"status" yaml:"status"`
	StartedAt      string `json:"started_at" yaml:"started_at"`
	CompletedAt    string `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Collect reads every table into a Dump.
func Collect(s *store.Store, now time.Time) (*Dump, error) {
	categories, err := s.ListCategories(true)
	if err != nil {
		return nil, err
	}
	tags, err := s.ListTags()
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(store.TaskQuery{IncludeDone: true})
	if err != nil {
		return nil, err
	}
	habits, err := s.ListHabits(true)
	if err != nil {
		return nil, err
	}
	tracking, err := s.ListTracking(store.TrackingFilter{})
	if err != nil {
		return nil, err
	}
	sessions, err := s.ListPomodoros(time.Time{}, now.Add(time.Minute))
	if err != nil {
		return nil, err
	}
	return BuildDump(now, categories, tags, tasks, habits, tracking, sessions), nil
}

func BuildDump(now time.Time, categories []store.Category, tags []store.Tag, tasks []store.Task,
	habits []store.Habit, tracking []store.HabitTracking, sessions []store.PomodoroSession) *Dump {
	d := &Dump{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Categories: make([]dumpCategory, 0, len(categories)),
		Tags:       make([]dumpTag, 0, len(tags)),
		Tasks:      make([]dumpTask, 0, len(tasks)),
		Habits:     make([]dumpHabit, 0, len(habits)),
		Tracking:   make([]dumpTracking, 0, len(tracking)),
		Pomodoro:   make([]dumpPomodoro, 0, len(sessions)),
	}
	for _, c := range categories {
		d.Categories = append(d.Categories, dumpCategory{ID: c.ID, Name: c.Name, Color: c.Color, Archived: c.Archived})
	}
	for _, t := range tags {
		d.Tags = append(d.Tags, dumpTag{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	for _, t := range tasks {
		dt := dumpTask{
			ID:          t.ID,
			UID:         t.UID,
			Title:       t.Title,
			Description: t.Description,
			CategoryID:  t.CategoryID,
			Priority:    t.Priority.String(),
			Status:      string(t.Status),
			StartDate:   dateString(t.StartDate),
			DueDate:     dateString(t.DueDate),
			Recurrence:  string(t.Recurrence.Normalize().Rule),
			Interval:    t.Recurrence.Normalize().Interval,
			CompletedAt: stampString(t.CompletedAt),
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, tag := range t.Tags {
			dt.Tags = append(dt.Tags, tag.Name)
		}
		for _, st := range t.Subtasks {
			dt.Subtasks = append(dt.Subtasks, dumpSubtask{Title: st.Title, Completed: st.Completed})
		}
		d.Tasks = append(d.Tasks, dt)
	}
	for _, h := range habits {
		d.Habits = append(d.Habits, dumpHabit{
			ID:            h.ID,
			UID:           h.UID,
			Name:          h.Name,
			Description:   h.Description,
			CategoryID:    h.CategoryID,
			Color:         h.Color,
			Type:          string(h.Type),
			Target:        h.Target,
			Unit:          h.Unit,
			Frequency:     string(h.Frequency.Kind),
			Days:          h.Frequency.Days.String(),
			TimesPerWeek:  h.Frequency.TimesPerWeek,
			CurrentStreak: h.CurrentStreak,
			BestStreak:    h.BestStreak,
			Archived:      h.Archived,
		})
	}
	for _, t := range tracking {
		d.Tracking = append(d.Tracking, dumpTracking{
			HabitID:   t.HabitID,
			Date:      calendar.Format(t.Date),
			Completed: t.Completed,
			Value:     t.Value,
			Duration:  t.Duration,
			Note:      t.Note,
		})
	}
	for _, p := range sessions {
		d.Pomodoro = append(d.Pomodoro, dumpPomodoro{
			ID:             p.ID,
			TaskID:         p.TaskID,
			WorkSeconds:    p.WorkDuration,
			BreakSeconds:   p.BreakDuration,
			CompletedCount: p.CompletedCount,
			TargetCount:    p.TargetCount,
			Status:         p.Status,
			StartedAt:      p.StartedAt.UTC().Format(time.RFC3339),
			CompletedAt:    stampString(p.CompletedAt),
		})
	}
	return d
}
