package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/store"
	"github.com/sadopc/habitask/internal/tasklist"
)

// todayModel is the dashboard: what is due today, habit progress and the
// habit stopwatch.
type todayModel struct {
	store  *store.Store
	timer  timerModel
	width  int
	height int

	today     time.Time
	tasks     []store.Task
	habits    []store.Habit
	records   map[int64]*store.HabitTracking
	doneToday int
	goal      int
	focusSecs int64

	cursor int
	bar    progress.Model
}

func newTodayModel(s *store.Store) todayModel {
	return todayModel{
		store: s,
		timer: newTimerModel(s),
		today: calendar.Today(),
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(20)),
	}
}

func (d todayModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d todayModel) isRunning() bool { return d.timer.running() }
func (d todayModel) isPaused() bool  { return d.timer.paused() }
func (d todayModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type todayDataMsg struct {
	today     time.Time
	tasks     []store.Task
	habits    []store.Habit
	records   map[int64]*store.HabitTracking
	doneToday int
	goal      int
	focusSecs int64
}

func (d todayModel) loadData() tea.Cmd {
	return func() tea.Msg {
		today := calendar.Today()

		tasks, err := d.store.ListTasks(store.TaskQuery{DueOnOrBefore: &today})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		tasklist.Sort(tasks, tasklist.SortDue)

		since := calendar.Midnight(today, time.Local)
		done, err := d.store.ListTasks(store.TaskQuery{IncludeDone: true, CompletedSince: &since})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		doneToday := 0
		for _, t := range done {
			if t.Done() {
				doneToday++
			}
		}

		all, err := d.store.ListHabits(false)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		var habits []store.Habit
		for _, h := range all {
			if h.Rule().IsDue(today) {
				habits = append(habits, h)
			}
		}
		records, err := trackingFor(d.store, today)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}

		_, focus, err := d.store.GetPomodoroStats(since, since.AddDate(0, 0, 1))
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}

		return todayDataMsg{
			today:     today,
			tasks:     tasks,
			habits:    habits,
			records:   records,
			doneToday: doneToday,
			goal:      d.store.GetIntSetting(store.SettingDailyTaskGoal, 5),
			focusSecs: focus,
		}
	}
}

// trackingFor maps habit ID to its record for day.
func trackingFor(s *store.Store, day time.Time) (map[int64]*store.HabitTracking, error) {
	recs, err := s.ListTracking(store.TrackingFilter{From: &day, To: &day})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*store.HabitTracking, len(recs))
	for i := range recs {
		out[recs[i].HabitID] = &recs[i]
	}
	return out, nil
}

func (d todayModel) itemCount() int {
	return len(d.tasks) + len(d.habits)
}

// selected returns the task or habit under the cursor.
func (d todayModel) selected() (*store.Task, *store.Habit) {
	switch {
	case d.cursor < len(d.tasks):
		return &d.tasks[d.cursor], nil
	case d.cursor < d.itemCount():
		return nil, &d.habits[d.cursor-len(d.tasks)]
	}
	return nil, nil
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	switch msg := msg.(type) {
	case todayDataMsg:
		d.today = msg.today
		d.tasks = msg.tasks
		d.habits = msg.habits
		d.records = msg.records
		d.doneToday = msg.doneToday
		d.goal = msg.goal
		d.focusSecs = msg.focusSecs
		if d.cursor >= d.itemCount() {
			d.cursor = max(0, d.itemCount()-1)
		}
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil

	case startTimerMsg:
		return d.startTimer(msg.habit)

	case stopTimerMsg:
		return d.stopTimer()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < d.itemCount()-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			task, h := d.selected()
			if task != nil {
				return d, toggleTaskCmd(d.store, task.ID)
			}
			if h != nil {
				if h.Type == habit.Time {
					if d.timer.running() {
						return d.stopTimer()
					}
					return d.startTimer(*h)
				}
				return d, quickTrackCmd(d.store, *h, d.today)
			}
		case key.Matches(msg, keys.Decrement):
			if _, h := d.selected(); h != nil && h.Type == habit.Quantity {
				return d, addValueCmd(d.store, h.ID, d.today, -1)
			}
		case key.Matches(msg, keys.Start):
			if _, h := d.selected(); h != nil {
				return d.startTimer(*h)
			}
		case key.Matches(msg, keys.Stop):
			return d.stopTimer()
		case key.Matches(msg, keys.Pause):
			d.timer.toggle()
			return d, nil
		}
	}
	return d, nil
}

func (d todayModel) startTimer(h store.Habit) (todayModel, tea.Cmd) {
	if h.Type != habit.Time {
		return d, statusCmd(fmt.Sprintf("%s is not a timed habit", h.Name))
	}
	if d.timer.running() {
		return d, statusCmd(fmt.Sprintf("Timer already running for %s", d.timer.habitName))
	}
	d.timer.start(h)
	return d, statusCmd(fmt.Sprintf("Timer started for %s", h.Name))
}

func (d todayModel) stopTimer() (todayModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	rec, elapsed, err := d.timer.stop()
	if err != nil {
		return d, errCmd(err)
	}
	return d, tea.Batch(
		func() tea.Msg { return timerStoppedMsg{record: rec, elapsed: elapsed} },
		changedCmd,
	)
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(w),
		d.renderSummaryPanel(w),
		d.renderAgendaPanel(w),
	)
}

func (d todayModel) renderTimerPanel(w int) string {
	if !d.timer.running() {
		content := lipgloss.JoinVertical(lipgloss.Center,
			clockStyle(colorPrimary).Width(w-6).Render("00:00:00"),
			mutedStyle.Render("■  STOPPED"),
			mutedStyle.Render("Select a timed habit and press s to start"),
		)
		return panelStyle.Width(w).Render(content)
	}

	timeStr := formatDuration(d.timer.currentElapsed())
	display := clockStyle(colorSuccess).Width(w - 6).Render(timeStr)
	indicator := successStyle.Render("●  RUNNING")
	if d.timer.paused() {
		display = clockStyle(colorWarning).Width(w - 6).Render(timeStr)
		indicator = warningStyle.Render("⏸  PAUSED")
		if d.timer.isIdle {
			indicator = warningStyle.Render("⏸  IDLE")
		}
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		display,
		indicator,
		highlightStyle.Render(d.timer.habitName),
	)
	return activePanelStyle.Width(w).Render(content)
}

func (d todayModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today") + "  " + mutedStyle.Render(d.today.Format("Monday, Jan 2"))

	goal := max(d.goal, 1)
	pct := float64(d.doneToday) / float64(goal)
	goalLine := fmt.Sprintf("  Tasks done  %s %d/%d", d.bar.ViewAs(min(pct, 1)), d.doneToday, d.goal)

	met := 0
	for _, h := range d.habits {
		if r := d.records[h.ID]; r != nil && r.Completed {
			met++
		}
	}
	habitLine := fmt.Sprintf("  Habits      %d/%d done", met, len(d.habits))
	focusLine := fmt.Sprintf("  Focus       %s", highlightStyle.Render(formatSeconds(d.focusSecs)))

	return panelStyle.Width(w).Render(strings.Join([]string{title, goalLine, habitLine, focusLine}, "\n"))
}

func (d todayModel) renderAgendaPanel(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Due & Overdue"))
	if len(d.tasks) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing due. Press 2 to plan tasks."))
	}
	for i, t := range d.tasks {
		cursor, style := "  ", normalItemStyle
		if i == d.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		due := ""
		if tasklist.IsOverdue(t, d.today) {
			due = errorStyle.Render(fmt.Sprintf(" overdue %s", calendar.Format(*t.DueDate)))
		}
		rows = append(rows, style.Render(cursor+"☐ "+t.Title)+" "+priorityStyles[t.Priority].Render(priorityMarks[t.Priority])+due)
	}

	rows = append(rows, "", titleStyle.Render("Habits"))
	if len(d.habits) == 0 {
		rows = append(rows, mutedStyle.Render("  No habits due today. Press 3 to add one."))
	}
	for i, h := range d.habits {
		idx := len(d.tasks) + i
		cursor, style := "  ", normalItemStyle
		if idx == d.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		rec := d.records[h.ID]
		rows = append(rows, fmt.Sprintf("%s %s %s  %s",
			style.Render(cursor+colorDot(h.Color)),
			style.Render(fmt.Sprintf("%-18s", h.Name)),
			d.bar.ViewAs(habitProgress(h, rec)),
			mutedStyle.Render(progressLabel(h, rec)),
		))
	}

	rows = append(rows, "", mutedStyle.Render("  space: done/+1  -: undo one  s/x: start/stop timer  p: pause"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
