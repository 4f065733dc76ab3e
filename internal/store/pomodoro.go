package store

import (
	"database/sql"
	"fmt"
	"time"
)

const pomodoroColumns = `id, task_id, work_duration, break_duration, completed_count, target_count, status, started_at, completed_at`

func (s *Store) StartPomodoro(taskID *int64, workDuration, breakDuration, targetCount int) (*PomodoroSession, error) {
	if workDuration <= 0 || targetCount <= 0 {
		return nil, invalid("pomodoro needs a positive work duration and target")
	}
	res, err := s.db.Exec(
		`INSERT INTO pomodoro_sessions (task_id, work_duration, break_duration, target_count, status, started_at)
		 VALUES (?, ?, ?, ?, 'working', ?)`,
		taskID, workDuration, breakDuration, targetCount, s.stamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("start pomodoro: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetPomodoro(id)
}

func scanPomodoro(row interface{ Scan(...any) error }) (PomodoroSession, error) {
	var p PomodoroSession
	var startedAt string
	var completedAt sql.NullString
	var taskID sql.NullInt64
	err := row.Scan(&p.ID, &taskID, &p.WorkDuration, &p.BreakDuration, &p.CompletedCount, &p.TargetCount,
		&p.Status, &startedAt, &completedAt)
	if err != nil {
		return p, err
	}
	p.TaskID = nullInt(taskID)
	p.StartedAt = parseStamp(startedAt)
	p.CompletedAt = nullStamp(completedAt)
	return p, nil
}

func (s *Store) GetPomodoro(id int64) (*PomodoroSession, error) {
	p, err := scanPomodoro(s.db.QueryRow(`SELECT `+pomodoroColumns+` FROM pomodoro_sessions WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "pomodoro", id)
	}
	return &p, nil
}

func (s *Store) CompletePomodoro(id int64) error {
	return s.execOne("pomodoro", id,
		`UPDATE pomodoro_sessions SET status = 'completed', completed_at = ?, completed_count = target_count WHERE id = ?`,
		s.stamp(), id,
	)
}

func (s *Store) IncrementPomodoro(id int64) error {
	return s.execOne("pomodoro", id,
		`UPDATE pomodoro_sessions SET completed_count = completed_count + 1 WHERE id = ?`, id,
	)
}

func (s *Store) UpdatePomodoroStatus(id int64, status string) error {
	return s.execOne("pomodoro", id,
		`UPDATE pomodoro_sessions SET status = ? WHERE id = ?`, status, id,
	)
}

// CancelPomodoro ends a session early; work phases already finished still
// count as focus time.
func (s *Store) CancelPomodoro(id int64) error {
	return s.execOne("pomodoro", id,
		`UPDATE pomodoro_sessions SET status = 'cancelled', completed_at = ? WHERE id = ?`,
		s.stamp(), id,
	)
}

// ListPomodoros returns sessions started in [from, to).
func (s *Store) ListPomodoros(from, to time.Time) ([]PomodoroSession, error) {
	rows, err := s.db.Query(
		`SELECT `+pomodoroColumns+` FROM pomodoro_sessions
		 WHERE started_at >= ? AND started_at < ?
		 ORDER BY started_at`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("list pomodoros: %w", err)
	}
	defer rows.Close()

	var sessions []PomodoroSession
	for rows.Next() {
		p, err := scanPomodoro(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, p)
	}
	return sessions, rows.Err()
}

// GetPomodoroStats returns the number of completed sessions and the focus
// seconds of all sessions started in [from, to).
func (s *Store) GetPomodoroStats(from, to time.Time) (completed int, focusSecs int64, err error) {
	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(status = 'completed'), 0), COALESCE(SUM(work_duration * completed_count), 0)
		FROM pomodoro_sessions
		WHERE started_at >= ? AND started_at < ?`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	).Scan(&completed, &focusSecs)
	return
}
