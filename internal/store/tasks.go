package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/recur"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

const taskColumns = `id, uid, title, description, category_id, priority, status, start_date, due_date,
	recurrence, recurrence_interval, completed_at, created_at, updated_at`

func validateTask(in *TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("task title is empty")
	}
	if in.Priority < PriorityNone || in.Priority > PriorityHigh {
		return invalid("priority %d out of range", in.Priority)
	}
	if err := in.Recurrence.Validate(); err != nil {
		return invalid("%v", err)
	}
	in.Recurrence = in.Recurrence.Normalize()
	if in.StartDate != nil && in.DueDate != nil && calendar.Day(*in.DueDate).Before(calendar.Day(*in.StartDate)) {
		return invalid("due date is before start date")
	}
	return nil
}

func validStatus(st Status) bool {
	for _, known := range Statuses {
		if st == known {
			return true
		}
	}
	return false
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return calendar.Format(*t)
}

func nullDate(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := calendar.Parse(ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func (s *Store) CreateTask(in TaskInput) (*Task, error) {
	if err := validateTask(&in); err != nil {
		return nil, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id, err := s.insertTask(tx, in)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return s.GetTask(id)
}

func (s *Store) insertTask(ex execer, in TaskInput) (int64, error) {
	now := s.stamp()
	res, err := ex.Exec(
		`INSERT INTO tasks (uid, title, description, category_id, priority, status, start_date, due_date,
			recurrence, recurrence_interval, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), in.Title, in.Description, in.CategoryID, int(in.Priority),
		dateArg(in.StartDate), dateArg(in.DueDate),
		string(in.Recurrence.Rule), in.Recurrence.Interval, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	if err := setTaskTags(ex, id, in.TagIDs); err != nil {
		return 0, err
	}
	return id, nil
}

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var categoryID sql.NullInt64
	var priority int
	var status, rule, createdAt, updatedAt string
	var startDate, dueDate, completedAt sql.NullString
	err := row.Scan(&t.ID, &t.UID, &t.Title, &t.Description, &categoryID, &priority, &status,
		&startDate, &dueDate, &rule, &t.Recurrence.Interval, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}
	t.CategoryID = nullInt(categoryID)
	t.Priority = Priority(priority)
	t.Status = Status(status)
	t.StartDate = nullDate(startDate)
	t.DueDate = nullDate(dueDate)
	t.Recurrence.Rule = recur.Rule(rule)
	t.CompletedAt = nullStamp(completedAt)
	t.CreatedAt = parseStamp(createdAt)
	t.UpdatedAt = parseStamp(updatedAt)
	return t, nil
}

func (s *Store) GetTask(id int64) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	tasks := []Task{t}
	if err := s.loadTaskChildren(tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// ListTasks returns tasks with their subtasks and tags, ordered by due date
// (undated last) and then by ID.
func (s *Store) ListTasks(q TaskQuery) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any

	if q.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*q.Status))
	} else if !q.IncludeDone {
		query += ` AND status != 'completed'`
	}
	if q.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *q.CategoryID)
	}
	if q.DueOnOrBefore != nil {
		query += ` AND due_date IS NOT NULL AND due_date <= ?`
		args = append(args, calendar.Format(*q.DueOnOrBefore))
	}
	if q.CompletedSince != nil {
		query += ` AND completed_at >= ?`
		args = append(args, q.CompletedSince.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY due_date IS NULL, due_date, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	if err := s.loadTaskChildren(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) loadTaskChildren(tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	tags, err := s.tagsByTask(ids)
	if err != nil {
		return err
	}
	subs, err := s.subtasksByTask(ids)
	if err != nil {
		return err
	}
	for i := range tasks {
		tasks[i].Tags = tags[tasks[i].ID]
		tasks[i].Subtasks = subs[tasks[i].ID]
	}
	return nil
}

func (s *Store) UpdateTask(id int64, in TaskInput) error {
	if err := validateTask(&in); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE tasks SET title = ?, description = ?, category_id = ?, priority = ?, start_date = ?, due_date = ?,
			recurrence = ?, recurrence_interval = ?, updated_at = ?
		 WHERE id = ?`,
		in.Title, in.Description, in.CategoryID, int(in.Priority), dateArg(in.StartDate), dateArg(in.DueDate),
		string(in.Recurrence.Rule), in.Recurrence.Interval, s.stamp(), id,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "task", id)
	}
	if err := setTaskTags(tx, id, in.TagIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// SetTaskStatus moves a task to status. CompletedAt is stamped only on the
// transition into completed and cleared on the way out. Completing a dated
// recurring task creates its next occurrence, which is returned.
func (s *Store) SetTaskStatus(id int64, status Status) (*Task, error) {
	if !validStatus(status) {
		return nil, invalid("unknown status %q", status)
	}
	t, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := s.stamp()
	completing := status == StatusCompleted && !t.Done()
	switch {
	case completing:
		_, err = tx.Exec(`UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
			string(status), now, now, id)
	case status == StatusCompleted:
		_, err = tx.Exec(`UPDATE tasks SET updated_at = ? WHERE id = ?`, now, id)
	default:
		_, err = tx.Exec(`UPDATE tasks SET status = ?, completed_at = NULL, updated_at = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return nil, fmt.Errorf("set task %d status: %w", id, err)
	}

	var nextID int64
	if completing && t.Recurrence.Repeats() && t.DueDate != nil {
		nextID, err = s.insertNextOccurrence(tx, t)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status: %w", err)
	}
	if nextID == 0 {
		return nil, nil
	}
	return s.GetTask(nextID)
}

func (s *Store) insertNextOccurrence(ex execer, t *Task) (int64, error) {
	in := TaskInput{
		Title:       t.Title,
		Description: t.Description,
		CategoryID:  t.CategoryID,
		Priority:    t.Priority,
		Recurrence:  t.Recurrence,
	}
	due := t.Recurrence.Next(*t.DueDate)
	in.DueDate = &due
	if t.StartDate != nil {
		start := t.Recurrence.Next(*t.StartDate)
		in.StartDate = &start
	}
	for _, tag := range t.Tags {
		in.TagIDs = append(in.TagIDs, tag.ID)
	}
	id, err := s.insertTask(ex, in)
	if err != nil {
		return 0, fmt.Errorf("next occurrence: %w", err)
	}
	for _, st := range t.Subtasks {
		if _, err := ex.Exec(
			`INSERT INTO subtasks (task_id, title, completed, position) VALUES (?, ?, 0, ?)`,
			id, st.Title, st.Position,
		); err != nil {
			return 0, fmt.Errorf("copy subtask: %w", err)
		}
	}
	return id, nil
}

// ToggleTask flips a task between pending and completed.
func (s *Store) ToggleTask(id int64) (*Task, error) {
	t, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	if t.Done() {
		return s.SetTaskStatus(id, StatusPending)
	}
	return s.SetTaskStatus(id, StatusCompleted)
}

func (s *Store) DeleteTask(id int64) error {
	return s.execOne("task", id, `DELETE FROM tasks WHERE id = ?`, id)
}
