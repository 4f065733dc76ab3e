package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/habit"
)

const trackingColumns = `id, habit_id, date, completed, value, duration, note`

func scanTracking(row interface{ Scan(...any) error }) (HabitTracking, error) {
	var t HabitTracking
	var date string
	var completed int
	if err := row.Scan(&t.ID, &t.HabitID, &date, &completed, &t.Value, &t.Duration, &t.Note); err != nil {
		return t, err
	}
	t.Date, _ = calendar.Parse(date)
	t.Completed = completed == 1
	return t, nil
}

// GetTracking returns the record for a habit on a day, or nil if the day
// has not been tracked.
func (s *Store) GetTracking(habitID int64, date time.Time) (*HabitTracking, error) {
	t, err := scanTracking(s.db.QueryRow(
		`SELECT `+trackingColumns+` FROM habit_tracking WHERE habit_id = ? AND date = ?`,
		habitID, calendar.Format(date),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tracking: %w", err)
	}
	return &t, nil
}

// TrackHabit records a day for a habit, replacing any earlier record for
// that day. Completion is derived from the habit's rule; only binary habits
// take the Completed flag as given.
func (s *Store) TrackHabit(habitID int64, date time.Time, in TrackInput) (*HabitTracking, error) {
	if in.Value < 0 || in.Duration < 0 {
		return nil, invalid("tracking values must not be negative")
	}
	h, err := s.GetHabit(habitID)
	if err != nil {
		return nil, err
	}
	day := calendar.Day(date)
	rec := habit.Record{Date: day, Completed: in.Completed, Value: in.Value, Duration: in.Duration}
	completed := h.Rule().Met(rec)

	_, err = s.db.Exec(
		`INSERT INTO habit_tracking (habit_id, date, completed, value, duration, note)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(habit_id, date) DO UPDATE SET
			completed = excluded.completed, value = excluded.value,
			duration = excluded.duration, note = excluded.note`,
		habitID, calendar.Format(day), boolInt(completed), in.Value, in.Duration, strings.TrimSpace(in.Note),
	)
	if err != nil {
		return nil, fmt.Errorf("track habit %d: %w", habitID, err)
	}
	if err := s.RecomputeStreaks(habitID); err != nil {
		return nil, err
	}
	return s.GetTracking(habitID, day)
}

func (s *Store) current(habitID int64, date time.Time) (TrackInput, error) {
	cur, err := s.GetTracking(habitID, date)
	if err != nil || cur == nil {
		return TrackInput{}, err
	}
	return TrackInput{Completed: cur.Completed, Value: cur.Value, Duration: cur.Duration, Note: cur.Note}, nil
}

// ToggleHabit flips a binary habit's completion for a day.
func (s *Store) ToggleHabit(habitID int64, date time.Time) (*HabitTracking, error) {
	in, err := s.current(habitID, date)
	if err != nil {
		return nil, err
	}
	in.Completed = !in.Completed
	return s.TrackHabit(habitID, date, in)
}

// AddTrackingValue adds delta to a quantity habit's value for a day, never
// going below zero.
func (s *Store) AddTrackingValue(habitID int64, date time.Time, delta float64) (*HabitTracking, error) {
	in, err := s.current(habitID, date)
	if err != nil {
		return nil, err
	}
	in.Value += delta
	if in.Value < 0 {
		in.Value = 0
	}
	return s.TrackHabit(habitID, date, in)
}

// AddTrackingDuration adds secs of tracked time to a time habit for a day.
func (s *Store) AddTrackingDuration(habitID int64, date time.Time, secs int64) (*HabitTracking, error) {
	in, err := s.current(habitID, date)
	if err != nil {
		return nil, err
	}
	in.Duration += secs
	if in.Duration < 0 {
		in.Duration = 0
	}
	return s.TrackHabit(habitID, date, in)
}

// UntrackHabit removes a day's record.
func (s *Store) UntrackHabit(habitID int64, date time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM habit_tracking WHERE habit_id = ? AND date = ?`, habitID, calendar.Format(date),
	)
	if err != nil {
		return fmt.Errorf("untrack habit %d: %w", habitID, err)
	}
	return s.RecomputeStreaks(habitID)
}

func (s *Store) ListTracking(f TrackingFilter) ([]HabitTracking, error) {
	query := `SELECT ` + trackingColumns + ` FROM habit_tracking WHERE 1=1`
	var args []any

	if f.HabitID != nil {
		query += ` AND habit_id = ?`
		args = append(args, *f.HabitID)
	}
	if f.From != nil {
		query += ` AND date >= ?`
		args = append(args, calendar.Format(*f.From))
	}
	if f.To != nil {
		query += ` AND date <= ?`
		args = append(args, calendar.Format(*f.To))
	}
	query += ` ORDER BY date, habit_id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tracking: %w", err)
	}
	defer rows.Close()

	var records []HabitTracking
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, t)
	}
	return records, rows.Err()
}

// WeekStart returns the configured first day of the week.
func (s *Store) WeekStart() time.Weekday {
	v, err := s.GetSetting(SettingWeekStart)
	if err != nil {
		return time.Monday
	}
	return calendar.ParseWeekday(v)
}

// RecomputeStreaks derives a habit's current and best streak from its full
// tracking history and stores them on the habit.
func (s *Store) RecomputeStreaks(habitID int64) error {
	h, err := s.GetHabit(habitID)
	if err != nil {
		return err
	}
	history, err := s.ListTracking(TrackingFilter{HabitID: &habitID})
	if err != nil {
		return err
	}
	recs := make([]habit.Record, len(history))
	for i, t := range history {
		recs[i] = t.Record()
	}
	weekStart := s.WeekStart()
	rule := h.Rule()
	current := habit.CurrentStreak(rule, recs, calendar.Day(s.now()), weekStart)
	best := habit.BestStreak(rule, recs, weekStart)
	if current > best {
		best = current
	}
	_, err = s.db.Exec(
		`UPDATE habits SET current_streak = ?, best_streak = ? WHERE id = ?`, current, best, habitID,
	)
	if err != nil {
		return fmt.Errorf("store streaks for habit %d: %w", habitID, err)
	}
	return nil
}

// RefreshStreaks recomputes every active habit's streaks; a streak can lapse
// just by the calendar moving on.
func (s *Store) RefreshStreaks() error {
	habits, err := s.ListHabits(false)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if err := s.RecomputeStreaks(h.ID); err != nil {
			return err
		}
	}
	return nil
}
