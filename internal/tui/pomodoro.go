package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitask/internal/store"
)

type pomodoroPhase int

const (
	pomodoroIdle pomodoroPhase = iota
	pomodoroWork
	pomodoroShortBreak
	pomodoroLongBreak
	pomodoroCompleted
)

// phaseStatus is the status persisted for each running phase.
var phaseStatus = map[pomodoroPhase]string{
	pomodoroWork:       "working",
	pomodoroShortBreak: "short_break",
	pomodoroLongBreak:  "long_break",
}

type pomodoroModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	phase          pomodoroPhase
	completedCount int
	targetCount    int
	finished       bool // all work phases done, long break running

	remaining time.Duration
	phaseEnd  time.Time

	workDuration      time.Duration
	breakDuration     time.Duration
	longBreakDuration time.Duration

	sessionID int64 // pomodoro_sessions.id

	task      *store.Task
	openTasks []store.Task

	formActive bool
	form       *huh.Form
	formTaskID *int64
}

func newPomodoroModel(s *store.Store) pomodoroModel {
	var taskID int64
	m := pomodoroModel{
		store:       s,
		now:         time.Now,
		phase:       pomodoroIdle,
		targetCount: 4,
		formTaskID:  &taskID,
	}
	m.loadSettings()
	return m
}

func (p *pomodoroModel) loadSettings() {
	p.workDuration = p.settingDuration(store.SettingPomodoroWork, 25*time.Minute)
	p.breakDuration = p.settingDuration(store.SettingPomodoroBreak, 5*time.Minute)
	p.longBreakDuration = p.settingDuration(store.SettingPomodoroLongBreak, 15*time.Minute)
	p.targetCount = max(p.store.GetIntSetting(store.SettingPomodoroCount, 4), 1)
}

func (p *pomodoroModel) settingDuration(key string, fallback time.Duration) time.Duration {
	secs := p.store.GetIntSetting(key, int(fallback.Seconds()))
	if secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func (p pomodoroModel) phaseLength(ph pomodoroPhase) time.Duration {
	switch ph {
	case pomodoroWork:
		return p.workDuration
	case pomodoroShortBreak:
		return p.breakDuration
	case pomodoroLongBreak:
		return p.longBreakDuration
	}
	return 0
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pomodoroModel) running() bool {
	return p.phase == pomodoroWork || p.phase == pomodoroShortBreak || p.phase == pomodoroLongBreak
}

type openTasksMsg struct {
	tasks []store.Task
}

func (p pomodoroModel) loadTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := p.store.ListTasks(store.TaskQuery{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return openTasksMsg{tasks: tasks}
	}
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case openTasksMsg:
		p.openTasks = msg.tasks
		return p, nil

	case tickMsg:
		if p.running() {
			p.remaining = p.phaseEnd.Sub(p.now())
			if p.remaining <= 0 {
				return p.advancePhase()
			}
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if p.phase == pomodoroIdle || p.phase == pomodoroCompleted {
				return p.startSession()
			}
		case key.Matches(msg, keys.Stop):
			if p.phase != pomodoroIdle {
				return p.cancelSession()
			}
		case key.Matches(msg, keys.Pause):
			if p.phase == pomodoroShortBreak || p.phase == pomodoroLongBreak {
				return p.advancePhase()
			}
		case key.Matches(msg, keys.Link):
			if !p.running() {
				return p.showTaskPicker()
			}
		}
	}
	return p, nil
}

func (p pomodoroModel) showTaskPicker() (pomodoroModel, tea.Cmd) {
	if len(p.openTasks) == 0 {
		return p, tea.Batch(p.loadTasks(), statusCmd("No open tasks to link"))
	}
	*p.formTaskID = 0
	if p.task != nil {
		*p.formTaskID = p.task.ID
	}
	opts := []huh.Option[int64]{huh.NewOption("No task", int64(0))}
	for _, t := range p.openTasks {
		opts = append(opts, huh.NewOption(t.Title, t.ID))
	}
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Link to task").Options(opts...).Value(p.formTaskID),
		),
	).WithShowHelp(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p pomodoroModel) updateForm(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.task = nil
		for i := range p.openTasks {
			if p.openTasks[i].ID == *p.formTaskID {
				t := p.openTasks[i]
				p.task = &t
			}
		}
		if p.task == nil {
			return p, statusCmd("Pomodoro unlinked")
		}
		return p, statusCmd("Pomodoro linked to " + p.task.Title)
	}
	return p, cmd
}

func (p pomodoroModel) startSession() (pomodoroModel, tea.Cmd) {
	p.completedCount = 0
	p.finished = false
	p.loadSettings()

	var taskID *int64
	if p.task != nil {
		id := p.task.ID
		taskID = &id
	}
	session, err := p.store.StartPomodoro(taskID,
		int(p.workDuration.Seconds()),
		int(p.breakDuration.Seconds()),
		p.targetCount,
	)
	if err != nil {
		return p, errCmd(err)
	}
	p.sessionID = session.ID

	var cmd tea.Cmd
	if p.task != nil && p.task.Status == store.StatusPending {
		id := p.task.ID
		p.task.Status = store.StatusInProgress
		cmd = func() tea.Msg {
			if _, err := p.store.SetTaskStatus(id, store.StatusInProgress); err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			return dataChangedMsg{}
		}
	}
	p, work := p.startPhase(pomodoroWork)
	return p, tea.Batch(work, cmd)
}

// startPhase begins a countdown. The phase is persisted unless the session
// is already complete.
func (p pomodoroModel) startPhase(phase pomodoroPhase) (pomodoroModel, tea.Cmd) {
	d := p.phaseLength(phase)
	p.phase = phase
	p.remaining = d
	p.phaseEnd = p.now().Add(d)
	if p.sessionID > 0 && !p.finished {
		if err := p.store.UpdatePomodoroStatus(p.sessionID, phaseStatus[phase]); err != nil {
			return p, errCmd(err)
		}
	}
	return p, nil
}

// advancePhase moves past the current phase. Every work phase but the last
// is followed by a short break; the last one completes the session and
// starts the long break.
func (p pomodoroModel) advancePhase() (pomodoroModel, tea.Cmd) {
	switch p.phase {
	case pomodoroWork:
		p.completedCount++
		if p.completedCount < p.targetCount {
			if err := p.store.IncrementPomodoro(p.sessionID); err != nil {
				return p, errCmd(err)
			}
			p, cmd := p.startPhase(pomodoroShortBreak)
			return p, tea.Batch(cmd, changedCmd, statusCmd("Break time! \a"))
		}
		if err := p.store.CompletePomodoro(p.sessionID); err != nil {
			return p, errCmd(err)
		}
		p.finished = true
		p, _ = p.startPhase(pomodoroLongBreak)
		return p, tea.Batch(changedCmd, statusCmd("All pomodoros done, enjoy the long break! \a"))

	case pomodoroShortBreak:
		return p.startPhase(pomodoroWork)

	case pomodoroLongBreak:
		p.phase = pomodoroCompleted
		p.remaining = 0
		return p, statusCmd("Pomodoro session complete! \a")
	}
	return p, nil
}

func (p pomodoroModel) cancelSession() (pomodoroModel, tea.Cmd) {
	wasFinished := p.finished || p.phase == pomodoroCompleted
	p.phase = pomodoroIdle
	p.remaining = 0
	p.finished = false
	if wasFinished {
		return p, nil
	}
	if p.sessionID > 0 {
		if err := p.store.CancelPomodoro(p.sessionID); err != nil {
			return p, errCmd(err)
		}
	}
	return p, tea.Batch(changedCmd, statusCmd("Pomodoro cancelled"))
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Link Task"), "", p.form.View()))
	}

	title := titleStyle.Render("Pomodoro Timer")

	look := phaseLooks[p.phase]
	clock := clockStyle(look.color).Width(w - 6)
	phaseLabel := lipgloss.NewStyle().Foreground(look.color).Bold(true).Render(look.label)
	indicator := p.renderProgress()

	var timeDisplay string
	switch p.phase {
	case pomodoroIdle:
		timeDisplay = clock.Render(formatPomodoroTime(p.workDuration))
		phaseLabel = mutedStyle.Render(look.label)
		indicator = mutedStyle.Render(fmt.Sprintf("%d x %s work, %s breaks, %s long break",
			p.targetCount, formatPomodoroTime(p.workDuration),
			formatPomodoroTime(p.breakDuration), formatPomodoroTime(p.longBreakDuration)))
	case pomodoroCompleted:
		timeDisplay = clock.Render("Done!")
	default:
		timeDisplay = clock.Render(formatPomodoroTime(p.remaining))
	}

	linked := mutedStyle.Render("No task linked")
	if p.task != nil {
		linked = "Working on: " + highlightStyle.Render(p.task.Title)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		"",
		indicator,
		"",
		linked,
	)

	// Controls
	var controls string
	switch p.phase {
	case pomodoroIdle, pomodoroCompleted:
		controls = mutedStyle.Render("s: start  t: link task  q: quit")
	case pomodoroWork:
		controls = mutedStyle.Render("x: cancel")
	case pomodoroShortBreak, pomodoroLongBreak:
		controls = mutedStyle.Render("p: skip break  x: stop")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (p pomodoroModel) renderProgress() string {
	var parts []string
	for i := 0; i < p.targetCount; i++ {
		if i < p.completedCount {
			parts = append(parts, successStyle.Render("●"))
		} else if i == p.completedCount && p.phase == pomodoroWork {
			parts = append(parts, accentStyle.Render("◐"))
		} else {
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	progress := strings.Join(parts, " ")
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", p.completedCount, p.targetCount))
	return progress + counter
}

func formatPomodoroTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
