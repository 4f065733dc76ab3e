package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/habitask/internal/export"
	"github.com/sadopc/habitask/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	log       *zap.Logger
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	today    todayModel
	tasks    tasksModel
	habits   habitsModel
	pomodoro pomodoroModel
	stats    statsModel
	settings settingsModel

	help        help.Model
	status      string
	statusError bool
}

// NewApp builds the root model. Exports are written to exportDir.
func NewApp(s *store.Store, logger *zap.Logger, exportDir string) App {
	h := help.New()
	h.ShowAll = false
	if logger == nil {
		logger = zap.NewNop()
	}

	return App{
		store:      s,
		log:        logger,
		exportDir:  exportDir,
		activeView: viewToday,
		today:      newTodayModel(s),
		tasks:      newTasksModel(s),
		habits:     newHabitsModel(s),
		pomodoro:   newPomodoroModel(s),
		stats:      newStatsModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.today.Init(),
		a.tasks.refresh(),
		a.habits.refresh(),
		a.pomodoro.loadTasks(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.habits.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		a.today.timer.recordActivity()

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewToday)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewTasks)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewHabits)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewPomodoro)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewStats)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Always route ticks to the habit stopwatch and the pomodoro
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		cmds = append(cmds, cmd)
		a.pomodoro, cmd = a.pomodoro.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case startTimerMsg, stopTimerMsg:
		// The stopwatch lives on the Today view whichever tab asked.
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		return a, cmd

	case dataChangedMsg:
		return a, a.refreshAll()

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		if msg.isError {
			a.log.Error("view error", zap.String("view", viewNames[a.activeView]), zap.String("message", msg.text))
		}
		return a, nil

	case timerStoppedMsg:
		a.status = "Timer stopped: " + formatDuration(msg.elapsed)
		a.statusError = false
		if msg.record != nil {
			a.log.Info("habit timer stopped",
				zap.Int64("habit_id", msg.record.HabitID),
				zap.Duration("elapsed", msg.elapsed),
				zap.Int64("total_seconds", msg.record.Duration))
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		a.log.Info("export written", zap.String("path", msg.path))
		return a, nil

	case todayDataMsg:
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		return a, cmd

	case tasksDataMsg, categoriesDataMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case habitsDataMsg:
		var cmd tea.Cmd
		a.habits, cmd = a.habits.update(msg)
		return a, cmd

	case openTasksMsg:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, cmd

	case statsDataMsg:
		var cmd tea.Cmd
		a.stats, cmd = a.stats.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// quit saves a running habit stopwatch before leaving.
func (a App) quit() (tea.Model, tea.Cmd) {
	if a.today.isRunning() {
		if _, elapsed, err := a.today.timer.stop(); err != nil {
			a.log.Error("save timer on quit", zap.Error(err))
		} else {
			a.log.Info("habit timer saved on quit", zap.Duration("elapsed", elapsed))
		}
	}
	return a, tea.Quit
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewPomodoro && !a.pomodoro.running() {
		a.pomodoro.loadSettings()
	}
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewHabits:
		a.habits, cmd = a.habits.update(msg)
	case viewPomodoro:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.capturing()
	case viewHabits:
		return a.habits.formActive
	case viewSettings:
		return a.settings.formActive
	case viewPomodoro:
		return a.pomodoro.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewHabits:
		return a.habits.refresh()
	case viewPomodoro:
		return a.pomodoro.loadTasks()
	case viewStats:
		return a.stats.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) refreshAll() tea.Cmd {
	return tea.Batch(
		a.today.loadData(),
		a.tasks.refresh(),
		a.habits.refresh(),
		a.pomodoro.loadTasks(),
		a.stats.refresh(),
		a.settings.refresh(),
	)
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewTasks:
		content = a.tasks.view()
	case viewHabits:
		content = a.habits.view()
	case viewPomodoro:
		content = a.pomodoro.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("habitask")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.today.isRunning() {
		elapsed := a.today.elapsed()
		timerInfo = successStyle.Render(" ● " + a.today.timer.habitName + " " + formatDuration(elapsed))
		if a.today.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + a.today.timer.habitName + " " + formatDuration(elapsed))
		}
	}
	if a.pomodoro.running() && a.activeView != viewPomodoro {
		timerInfo += accentStyle.Render(" 🍅 " + formatPomodoroTime(a.pomodoro.remaining))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render("  to "+a.exportDir))
	rows = append(rows, "")
	for i, f := range export.Formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(string(f))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(export.Formats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(export.Formats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		path := filepath.Join(a.exportDir, export.FileName(f, now))
		if err := export.Run(a.store, f, path, now); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
