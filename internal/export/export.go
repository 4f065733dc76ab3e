// Package export writes tasks as CSV and the whole database as JSON or YAML.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/store"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

var Formats = []Format{CSV, JSON, YAML}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or yaml)", s)
}

// FileName returns a timestamped default file name for the format.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("habitask-%s.%s", now.Format("20060102-150405"), f)
}

// Run loads what the format needs from s and writes it to path.
func Run(s *store.Store, f Format, path string, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	if f == CSV {
		tasks, err := s.ListTasks(store.TaskQuery{IncludeDone: true})
		if err != nil {
			return err
		}
		categories, err := s.CategoryMap()
		if err != nil {
			return err
		}
		return ToCSV(tasks, categories, path)
	}

	d, err := Collect(s, now)
	if err != nil {
		return err
	}
	switch f {
	case JSON:
		return ToJSON(d, path)
	case YAML:
		return ToYAML(d, path)
	}
	return fmt.Errorf("unknown export format %q", f)
}
