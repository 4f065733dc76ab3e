package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/store"
)

var csvHeader = []string{"ID", "UID", "Title", "Status", "Priority", "Category", "Tags", "Due", "Completed At", "Subtasks"}

func ToCSV(tasks []store.Task, categories map[int64]*store.Category, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, tasks, categories); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

// WriteCSV writes one row per task. Subtasks are written as "done/total".
func WriteCSV(out io.Writer, tasks []store.Task, categories map[int64]*store.Category) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		done, total := t.SubtaskProgress()
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.UID,
			t.Title,
			string(t.Status),
			t.Priority.String(),
			categoryName(t.CategoryID, categories),
			tagNames(t.Tags),
			dateString(t.DueDate),
			stampString(t.CompletedAt),
			fmt.Sprintf("%d/%d", done, total),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func categoryName(id *int64, categories map[int64]*store.Category) string {
	if id == nil {
		return ""
	}
	if c, ok := categories[*id]; ok {
		return c.Name
	}
	return "Unknown"
}

func tagNames(tags []store.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ";")
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return calendar.Format(*t)
}

func stampString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
