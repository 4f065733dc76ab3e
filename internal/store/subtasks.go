package store

import (
	"fmt"
	"strings"
)

func (s *Store) AddSubtask(taskID int64, title string) (*Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("subtask title is empty")
	}
	var pos int
	if err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position), -1) + 1 FROM subtasks WHERE task_id = ?`, taskID,
	).Scan(&pos); err != nil {
		return nil, fmt.Errorf("next subtask position: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO subtasks (task_id, title, position) VALUES (?, ?, ?)`, taskID, title, pos,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subtask: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Subtask{ID: id, TaskID: taskID, Title: title, Position: pos}, nil
}

func (s *Store) ToggleSubtask(id int64) error {
	return s.execOne("subtask", id, `UPDATE subtasks SET completed = 1 - completed WHERE id = ?`, id)
}

func (s *Store) DeleteSubtask(id int64) error {
	return s.execOne("subtask", id, `DELETE FROM subtasks WHERE id = ?`, id)
}

func (s *Store) subtasksByTask(taskIDs []int64) (map[int64][]Subtask, error) {
	out := make(map[int64][]Subtask)
	if len(taskIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(
		`SELECT id, task_id, title, completed, position FROM subtasks
		 WHERE task_id IN (`+placeholders(len(taskIDs))+`)
		 ORDER BY position, id`,
		int64Args(taskIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("load subtasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st Subtask
		var completed int
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &completed, &st.Position); err != nil {
			return nil, err
		}
		st.Completed = completed == 1
		out[st.TaskID] = append(out[st.TaskID], st)
	}
	return out, rows.Err()
}
