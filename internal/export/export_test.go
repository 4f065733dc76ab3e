package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/recur"
	"github.com/sadopc/habitask/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	cat, _ := s.CreateCategory("Work", "#FF0000")
	tags, _ := s.EnsureTags([]string{"urgent", "client"})
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	task, err := s.CreateTask(store.TaskInput{
		Title:      "Send invoice, with comma",
		CategoryID: &cat.ID,
		Priority:   store.PriorityHigh,
		DueDate:    &due,
		Recurrence: recur.Recurrence{Rule: recur.Monthly},
		TagIDs:     []int64{tags[0].ID, tags[1].ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	s.AddSubtask(task.ID, "draft")
	sub, _ := s.AddSubtask(task.ID, "send")
	s.ToggleSubtask(sub.ID)
	s.CreateTask(store.TaskInput{Title: "Loose end"})

	h, _ := s.CreateHabit(store.HabitInput{Name: "Read", Type: habit.Time, Target: 1200})
	s.TrackHabit(h.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), store.TrackInput{Duration: 1500})

	p, _ := s.StartPomodoro(&task.ID, 1500, 300, 4)
	s.IncrementPomodoro(p.ID)
	return s
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": CSV, "JSON": JSON, "yml": YAML, " yaml ": YAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)
	if got := FileName(YAML, now); got != "habitask-20240310-150405.yaml" {
		t.Errorf("got %q", got)
	}
}

// ============================================================
// CSV
// ============================================================

func TestWriteCSV(t *testing.T) {
	s := seededStore(t)
	tasks, _ := s.ListTasks(store.TaskQuery{IncludeDone: true})
	categories, _ := s.CategoryMap()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tasks, categories); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "ID,UID,Title,Status,Priority,Category,Tags,Due,Completed At,Subtasks" {
		t.Errorf("unexpected header: %v", records[0])
	}

	row := records[1]
	if row[2] != "Send invoice, with comma" {
		t.Errorf("title not quoted correctly: %q", row[2])
	}
	if row[1] == "" {
		t.Error("UID should be exported")
	}
	if row[3] != "pending" || row[4] != "high" || row[5] != "Work" {
		t.Errorf("unexpected fields: %v", row)
	}
	if row[6] != "client;urgent" {
		t.Errorf("tags: got %q", row[6])
	}
	if row[7] != "2024-03-15" || row[8] != "" || row[9] != "1/2" {
		t.Errorf("unexpected dates or subtasks: %v", row)
	}

	loose := records[2]
	if loose[5] != "" || loose[7] != "" || loose[9] != "0/0" {
		t.Errorf("undated uncategorised task: %v", loose)
	}
}

func TestCategoryNameUnknown(t *testing.T) {
	id := int64(99)
	if got := categoryName(&id, nil); got != "Unknown" {
		t.Errorf("got %q", got)
	}
}

// ============================================================
// JSON / YAML
// ============================================================

func TestRunJSON(t *testing.T) {
	s := seededStore(t)
	path := filepath.Join(t.TempDir(), "out", "dump.json")

	if err := Run(s, JSON, path, time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if d.ExportedAt == "" {
		t.Error("missing exported_at")
	}
	if len(d.Categories) != 1 || len(d.Tags) != 2 || len(d.Tasks) != 2 {
		t.Fatalf("unexpected counts: %d categories, %d tags, %d tasks", len(d.Categories), len(d.Tags), len(d.Tasks))
	}
	if len(d.Habits) != 1 || len(d.Tracking) != 1 || len(d.Pomodoro) != 1 {
		t.Fatalf("unexpected counts: %d habits, %d tracking, %d pomodoro", len(d.Habits), len(d.Tracking), len(d.Pomodoro))
	}

	task := d.Tasks[0]
	if task.Recurrence != "monthly" || task.Interval != 1 {
		t.Errorf("recurrence: %q every %d", task.Recurrence, task.Interval)
	}
	if len(task.Subtasks) != 2 || len(task.Tags) != 2 {
		t.Errorf("children not exported: %+v", task)
	}
	if !d.Tracking[0].Completed || d.Tracking[0].Date != "2024-03-01" {
		t.Errorf("tracking: %+v", d.Tracking[0])
	}
	if d.Pomodoro[0].TaskID == nil || d.Pomodoro[0].CompletedCount != 1 {
		t.Errorf("pomodoro: %+v", d.Pomodoro[0])
	}
}

func TestRunYAML(t *testing.T) {
	s := seededStore(t)
	path := filepath.Join(t.TempDir(), "dump.yaml")

	if err := Run(s, YAML, path, time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "exported_at:") {
		t.Error("missing exported_at key")
	}

	var d Dump
	if err := yaml.Unmarshal(data, &d); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if len(d.Habits) != 1 || d.Habits[0].Type != "time" || d.Habits[0].Days != "every day" {
		t.Errorf("habit: %+v", d.Habits)
	}
}

func TestRunCSVFile(t *testing.T) {
	s := seededStore(t)
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := Run(s, CSV, path, time.Now()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("csv not written: %v", err)
	}
}

func TestEmptyDumpHasArrays(t *testing.T) {
	d := BuildDump(time.Now(), nil, nil, nil, nil, nil, nil)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"tasks":[]`) {
		t.Errorf("empty tables should be [] not null: %s", data)
	}
}
