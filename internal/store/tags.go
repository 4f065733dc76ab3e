package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (s *Store) CreateTag(name, color string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("tag name is empty")
	}
	if color == "" {
		color = "#2EC4B6"
	}
	res, err := s.db.Exec(`INSERT INTO tags (name, color) VALUES (?, ?)`, name, color)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Tag{ID: id, Name: name, Color: color}, nil
}

// EnsureTags returns the tags with the given names, creating missing ones.
func (s *Store) EnsureTags(names []string) ([]Tag, error) {
	var out []Tag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var t Tag
		err := s.db.QueryRow(`SELECT id, name, color FROM tags WHERE name = ?`, name).Scan(&t.ID, &t.Name, &t.Color)
		if errors.Is(err, sql.ErrNoRows) {
			created, cerr := s.CreateTag(name, "")
			if cerr != nil {
				return nil, cerr
			}
			t = *created
		} else if err != nil {
			return nil, fmt.Errorf("find tag %q: %w", name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) DeleteTag(id int64) error {
	return s.execOne("tag", id, `DELETE FROM tags WHERE id = ?`, id)
}

// SetTaskTags replaces the tags attached to a task.
func (s *Store) SetTaskTags(taskID int64, tagIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := setTaskTags(tx, taskID, tagIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func setTaskTags(ex execer, taskID int64, tagIDs []int64) error {
	if _, err := ex.Exec(`DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear task tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := ex.Exec(
			`INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tagID,
		); err != nil {
			return fmt.Errorf("attach tag %d: %w", tagID, err)
		}
	}
	return nil
}

func (s *Store) tagsByTask(taskIDs []int64) (map[int64][]Tag, error) {
	out := make(map[int64][]Tag)
	if len(taskIDs) == 0 {
		return out, nil
	}
	query := `SELECT tt.task_id, t.id, t.name, t.color
		FROM task_tags tt JOIN tags t ON t.id = tt.tag_id
		WHERE tt.task_id IN (` + placeholders(len(taskIDs)) + `)
		ORDER BY t.name`
	rows, err := s.db.Query(query, int64Args(taskIDs)...)
	if err != nil {
		return nil, fmt.Errorf("load task tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var taskID int64
		var t Tag
		if err := rows.Scan(&taskID, &t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out[taskID] = append(out[taskID], t)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
