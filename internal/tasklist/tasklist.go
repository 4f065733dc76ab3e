// Package tasklist filters and orders tasks for display.
package tasklist

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/recur"
	"github.com/sadopc/habitask/internal/store"
)

// Window restricts tasks by their due date relative to today.
type Window string

const (
	WindowAll      Window = "all"
	WindowToday    Window = "today"
	WindowOverdue  Window = "overdue"
	WindowUpcoming Window = "upcoming"
	WindowNoDate   Window = "no_date"
)

var Windows = []Window{WindowAll, WindowToday, WindowOverdue, WindowUpcoming, WindowNoDate}

func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return WindowAll, nil
	}
	for _, w := range Windows {
		if string(w) == s {
			return w, nil
		}
	}
	return WindowAll, fmt.Errorf("unknown window %q", s)
}

// Next cycles to the following window, wrapping around.
func (w Window) Next() Window {
	for i, cand := range Windows {
		if cand == w {
			return Windows[(i+1)%len(Windows)]
		}
	}
	return WindowAll
}

func (w Window) Label() string {
	switch w {
	case WindowToday:
		return "Today"
	case WindowOverdue:
		return "Overdue"
	case WindowUpcoming:
		return "Upcoming"
	case WindowNoDate:
		return "No date"
	}
	return "All"
}

// Filter selects tasks. Zero values match everything.
type Filter struct {
	Statuses    map[store.Status]bool
	MinPriority store.Priority
	CategoryID  *int64
	TagID       *int64
	Query       string
	Window      Window
}

// Match reports whether t passes the filter on the given day.
func (f Filter) Match(t store.Task, today time.Time) bool {
	if len(f.Statuses) > 0 && !f.Statuses[t.Status] {
		return false
	}
	if t.Priority < f.MinPriority {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.TagID != nil && !hasTag(t, *f.TagID) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return inWindow(f.Window, t, calendar.Day(today))
}

func hasTag(t store.Task, id int64) bool {
	for _, tag := range t.Tags {
		if tag.ID == id {
			return true
		}
	}
	return false
}

func inWindow(w Window, t store.Task, today time.Time) bool {
	switch w {
	case WindowToday:
		return t.DueDate != nil && calendar.Day(*t.DueDate).Equal(today)
	case WindowOverdue:
		return IsOverdue(t, today)
	case WindowUpcoming:
		return t.DueDate != nil && calendar.Day(*t.DueDate).After(today)
	case WindowNoDate:
		return t.DueDate == nil
	}
	return true
}

// IsOverdue reports whether an open task's due date is before today.
func IsOverdue(t store.Task, today time.Time) bool {
	return !t.Done() && t.DueDate != nil && calendar.Day(*t.DueDate).Before(calendar.Day(today))
}

// SortKey orders a task list.
type SortKey string

const (
	SortDue      SortKey = "due"
	SortPriority SortKey = "priority"
	SortCreated  SortKey = "created"
	SortTitle    SortKey = "title"
)

var SortKeys = []SortKey{SortDue, SortPriority, SortCreated, SortTitle}

func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortDue, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return SortDue, fmt.Errorf("unknown sort key %q", s)
}

func (k SortKey) Next() SortKey {
	for i, cand := range SortKeys {
		if cand == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortDue
}

// Sort orders tasks in place. Undated tasks go last when sorting by due
// date; priority sorts highest first. Ties fall back to ID.
func Sort(tasks []store.Task, key SortKey) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch key {
		case SortDue:
			if c := compareDue(a.DueDate, b.DueDate); c != 0 {
				return c < 0
			}
		case SortPriority:
			if a.Priority != b.Priority {
				return a.Priority > b.Priority
			}
		case SortCreated:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case SortTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		}
		return a.ID < b.ID
	})
}

func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}

// Apply filters then sorts, returning a new slice.
func Apply(tasks []store.Task, f Filter, key SortKey, today time.Time) []store.Task {
	out := make([]store.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, today) {
			out = append(out, t)
		}
	}
	Sort(out, key)
	return out
}

// NextOccurrence returns the date a repeating task moves to after date.
func NextOccurrence(date time.Time, r recur.Recurrence) time.Time {
	return r.Next(date)
}
