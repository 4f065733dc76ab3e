package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/habitask/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewTasks
	viewHabits
	viewPomodoro
	viewStats
	viewSettings
)

var viewNames = []string{"Today", "Tasks", "Habits", "Pomodoro", "Statistics", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// startTimerMsg asks the app to start the habit stopwatch.
type startTimerMsg struct {
	habit store.Habit
}

type stopTimerMsg struct{}

// timerStoppedMsg reports the tracking record the stopwatch was saved to.
type timerStoppedMsg struct {
	record  *store.HabitTracking
	elapsed time.Duration
}

// dataChangedMsg tells every view that the database changed under it.
type dataChangedMsg struct{}

// --- Helpers ---

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true} }
}

func changedCmd() tea.Msg { return dataChangedMsg{} }

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

// window returns the [start, end) slice of n rows to show so that cursor
// stays visible in height rows.
func window(cursor, n, height int) (int, int) {
	if height < 1 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	start = max(0, min(start, n-height))
	return start, start + height
}
