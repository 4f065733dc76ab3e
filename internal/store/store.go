package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS categories (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		color       TEXT NOT NULL DEFAULT '#6C63FF',
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS tags (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		name   TEXT NOT NULL UNIQUE,
		color  TEXT NOT NULL DEFAULT '#2EC4B6'
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		uid                  TEXT NOT NULL UNIQUE,
		title                TEXT NOT NULL,
		description          TEXT NOT NULL DEFAULT '',
		category_id          INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		priority             INTEGER NOT NULL DEFAULT 0,
		status               TEXT NOT NULL DEFAULT 'pending',
		start_date           TEXT,
		due_date             TEXT,
		recurrence           TEXT NOT NULL DEFAULT 'none',
		recurrence_interval  INTEGER NOT NULL DEFAULT 0,
		completed_at         TEXT,
		created_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_due    ON tasks(due_date);

	CREATE TABLE IF NOT EXISTS subtasks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		position   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS task_tags (
		task_id  INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS habits (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		uid             TEXT NOT NULL UNIQUE,
		name            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		category_id     INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		color           TEXT NOT NULL DEFAULT '#2ECC71',
		type            TEXT NOT NULL DEFAULT 'binary',
		target          REAL NOT NULL DEFAULT 1,
		unit            TEXT NOT NULL DEFAULT '',
		frequency       TEXT NOT NULL DEFAULT 'daily',
		frequency_days  INTEGER NOT NULL DEFAULT 127,
		times_per_week  INTEGER NOT NULL DEFAULT 0,
		current_streak  INTEGER NOT NULL DEFAULT 0,
		best_streak     INTEGER NOT NULL DEFAULT 0,
		archived        INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS habit_tracking (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		habit_id   INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		date       TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		value      REAL NOT NULL DEFAULT 0,
		duration   INTEGER NOT NULL DEFAULT 0,
		note       TEXT NOT NULL DEFAULT '',
		UNIQUE(habit_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_tracking_date ON habit_tracking(date);

	CREATE TABLE IF NOT EXISTS pomodoro_sessions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id         INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
		work_duration   INTEGER NOT NULL DEFAULT 1500,
		break_duration  INTEGER NOT NULL DEFAULT 300,
		completed_count INTEGER NOT NULL DEFAULT 0,
		target_count    INTEGER NOT NULL DEFAULT 4,
		status          TEXT NOT NULL DEFAULT 'working',
		started_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		completed_at    TEXT
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('pomodoro_work',       '1500'),
		('pomodoro_break',      '300'),
		('pomodoro_long_break', '900'),
		('pomodoro_count',      '4'),
		('idle_timeout',        '300'),
		('week_start',          'monday'),
		('daily_task_goal',     '5');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// notFound maps sql.ErrNoRows to ErrNotFound, keeping the context message.
func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseStamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nullStamp(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseStamp(ns.String)
	return &t
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
