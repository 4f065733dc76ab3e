package store

import (
	"fmt"
	"strconv"
)

// Setting keys. Durations are stored in seconds.
const (
	SettingPomodoroWork      = "pomodoro_work"
	SettingPomodoroBreak     = "pomodoro_break"
	SettingPomodoroLongBreak = "pomodoro_long_break"
	SettingPomodoroCount     = "pomodoro_count"
	SettingIdleTimeout       = "idle_timeout"
	SettingWeekStart         = "week_start"
	SettingDailyTaskGoal     = "daily_task_goal"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// GetIntSetting reads a numeric setting, returning fallback when it is
// missing or not a number.
func (s *Store) GetIntSetting(key string, fallback int) int {
	v, err := s.GetSetting(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *Store) SetSetting(key, value string) error {
	if _, err := s.db.Exec(upsertSetting, key, value); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// SetSettings writes all settings or none.
func (s *Store) SetSettings(settings []Setting) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for _, st := range settings {
		if _, err := tx.Exec(upsertSetting, st.Key, st.Value); err != nil {
			return fmt.Errorf("set setting %q: %w", st.Key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, err
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}
