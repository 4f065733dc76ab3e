package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sadopc/habitask/internal/habit"
)

const habitColumns = `id, uid, name, description, category_id, color, type, target, unit,
	frequency, frequency_days, times_per_week, current_streak, best_streak, archived, created_at, updated_at`

func validateHabit(in *HabitInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("habit name is empty")
	}
	if _, err := habit.ParseType(string(in.Type)); err != nil {
		return invalid("%v", err)
	}
	if in.Frequency.Kind == "" {
		in.Frequency.Kind = habit.Daily
	}
	if err := in.Frequency.Validate(); err != nil {
		return invalid("%v", err)
	}
	if in.Frequency.Kind != habit.Weekdays {
		in.Frequency.Days = habit.AllDays
	}
	switch in.Type {
	case habit.Binary:
		in.Target = 1
	default:
		if in.Target <= 0 {
			return invalid("%s habit needs a positive target", in.Type)
		}
	}
	if in.Type == habit.Time && in.Unit == "" {
		in.Unit = "min"
	}
	if in.Color == "" {
		in.Color = "#2ECC71"
	}
	return nil
}

func (s *Store) CreateHabit(in HabitInput) (*Habit, error) {
	if err := validateHabit(&in); err != nil {
		return nil, err
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`INSERT INTO habits (uid, name, description, category_id, color, type, target, unit,
			frequency, frequency_days, times_per_week, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), in.Name, in.Description, in.CategoryID, in.Color, string(in.Type), in.Target, in.Unit,
		string(in.Frequency.Kind), int(in.Frequency.Days), in.Frequency.TimesPerWeek, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetHabit(id)
}

func scanHabit(row interface{ Scan(...any) error }) (Habit, error) {
	var h Habit
	var categoryID sql.NullInt64
	var typ, freq, createdAt, updatedAt string
	var days, archived int
	err := row.Scan(&h.ID, &h.UID, &h.Name, &h.Description, &categoryID, &h.Color, &typ, &h.Target, &h.Unit,
		&freq, &days, &h.Frequency.TimesPerWeek, &h.CurrentStreak, &h.BestStreak, &archived, &createdAt, &updatedAt)
	if err != nil {
		return h, err
	}
	h.CategoryID = nullInt(categoryID)
	h.Type = habit.Type(typ)
	h.Frequency.Kind = habit.FrequencyKind(freq)
	h.Frequency.Days = habit.DaySet(days)
	h.Archived = archived == 1
	h.CreatedAt = parseStamp(createdAt)
	h.UpdatedAt = parseStamp(updatedAt)
	return h, nil
}

func (s *Store) GetHabit(id int64) (*Habit, error) {
	h, err := scanHabit(s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "habit", id)
	}
	return &h, nil
}

func (s *Store) ListHabits(includeArchived bool) ([]Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// UpdateHabit changes a habit's definition. A new type or target changes
// which tracked days count as completed, so the stored flags are re-derived
// in the same transaction and the streaks recomputed afterwards.
func (s *Store) UpdateHabit(id int64, in HabitInput) error {
	if err := validateHabit(&in); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE habits SET name = ?, description = ?, category_id = ?, color = ?, type = ?, target = ?, unit = ?,
			frequency = ?, frequency_days = ?, times_per_week = ?, updated_at = ?
		 WHERE id = ?`,
		in.Name, in.Description, in.CategoryID, in.Color, string(in.Type), in.Target, in.Unit,
		string(in.Frequency.Kind), int(in.Frequency.Days), in.Frequency.TimesPerWeek, s.stamp(), id,
	)
	if err != nil {
		return fmt.Errorf("update habit %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "habit", id)
	}

	rule := habit.Rule{Type: in.Type, Target: in.Target, Frequency: in.Frequency}
	if err := rederiveCompletion(tx, id, rule); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit habit: %w", err)
	}
	return s.RecomputeStreaks(id)
}

// rederiveCompletion rewrites the completed flag of every tracking row of a
// habit from rule.
func rederiveCompletion(tx *sql.Tx, habitID int64, rule habit.Rule) error {
	rows, err := tx.Query(`SELECT `+trackingColumns+` FROM habit_tracking WHERE habit_id = ?`, habitID)
	if err != nil {
		return fmt.Errorf("load tracking for habit %d: %w", habitID, err)
	}
	var records []HabitTracking
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			rows.Close()
			return err
		}
		records = append(records, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, t := range records {
		met := rule.Met(t.Record())
		if met == t.Completed {
			continue
		}
		if _, err := tx.Exec(`UPDATE habit_tracking SET completed = ? WHERE id = ?`, boolInt(met), t.ID); err != nil {
			return fmt.Errorf("update tracking %d: %w", t.ID, err)
		}
	}
	return nil
}

func (s *Store) ArchiveHabit(id int64) error {
	return s.execOne("habit", id,
		`UPDATE habits SET archived = 1, updated_at = ? WHERE id = ?`, s.stamp(), id,
	)
}

func (s *Store) RestoreHabit(id int64) error {
	return s.execOne("habit", id,
		`UPDATE habits SET archived = 0, updated_at = ? WHERE id = ?`, s.stamp(), id,
	)
}

// DeleteHabit removes the habit and its whole tracking history.
func (s *Store) DeleteHabit(id int64) error {
	return s.execOne("habit", id, `DELETE FROM habits WHERE id = ?`, id)
}
