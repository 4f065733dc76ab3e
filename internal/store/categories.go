package store

import (
	"database/sql"
	"fmt"
	"strings"
)

const categoryColumns = `id, name, color, archived, created_at, updated_at`

func (s *Store) CreateCategory(name, color string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("category name is empty")
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`INSERT INTO categories (name, color, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetCategory(id)
}

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	var createdAt, updatedAt string
	var archived int
	if err := row.Scan(&c.ID, &c.Name, &c.Color, &archived, &createdAt, &updatedAt); err != nil {
		return c, err
	}
	c.Archived = archived == 1
	c.CreatedAt = parseStamp(createdAt)
	c.UpdatedAt = parseStamp(updatedAt)
	return c, nil
}

func (s *Store) GetCategory(id int64) (*Category, error) {
	c, err := scanCategory(s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return &c, nil
}

func (s *Store) ListCategories(includeArchived bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CategoryMap returns every category, archived included, keyed by ID.
func (s *Store) CategoryMap() (map[int64]*Category, error) {
	list, err := s.ListCategories(true)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]*Category, len(list))
	for i := range list {
		m[list[i].ID] = &list[i]
	}
	return m, nil
}

func (s *Store) UpdateCategory(id int64, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("category name is empty")
	}
	return s.execOne(
		"category", id,
		`UPDATE categories SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, color, s.stamp(), id,
	)
}

func (s *Store) ArchiveCategory(id int64) error {
	return s.execOne(
		"category", id,
		`UPDATE categories SET archived = 1, updated_at = ? WHERE id = ?`, s.stamp(), id,
	)
}

// DeleteCategory removes the category; tasks and habits in it become
// uncategorised.
func (s *Store) DeleteCategory(id int64) error {
	return s.execOne("category", id, `DELETE FROM categories WHERE id = ?`, id)
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(what string, id int64, query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", what, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, what, id)
	}
	return nil
}
