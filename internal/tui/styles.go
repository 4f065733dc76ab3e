package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorAccent    = lipgloss.Color("#FF6B6B")
	colorWarning   = lipgloss.Color("#F39C12")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorError     = lipgloss.Color("#E74C3C")
	colorMuted     = lipgloss.Color("#666666")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// paletteColors are offered when picking a habit or category color.
var paletteColors = []string{
	string(colorPrimary), string(colorSecondary), string(colorAccent), string(colorWarning),
	string(colorSuccess), string(colorError), "#9B59B6", "#3498DB",
}

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// clockStyle is the big centred digits of the stopwatch and pomodoro.
func clockStyle(c lipgloss.TerminalColor) lipgloss.Style {
	return fg(c).Bold(true).Align(lipgloss.Center)
}

var (
	activeTabStyle = fg(colorPrimary).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorMuted).Padding(0, 1)

	titleStyle     = fg(colorFg).Bold(true)
	accentStyle    = fg(colorAccent)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorError)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)
	doneItemStyle     = fg(colorMuted).Strikethrough(true)
)

// priorityStyles and priorityMarks are indexed by store.Priority.
var (
	priorityStyles = []lipgloss.Style{mutedStyle, fg(colorSecondary), warningStyle, errorStyle}
	priorityMarks  = []string{" ", "!", "!!", "!!!"}
)

// phaseLook is how a pomodoro phase is labelled and coloured.
type phaseLook struct {
	label string
	color lipgloss.TerminalColor
}

var phaseLooks = map[pomodoroPhase]phaseLook{
	pomodoroIdle:       {"Ready to start", colorPrimary},
	pomodoroWork:       {"WORK", colorAccent},
	pomodoroShortBreak: {"SHORT BREAK", colorSuccess},
	pomodoroLongBreak:  {"LONG BREAK", colorHighlight},
	pomodoroCompleted:  {"SESSION COMPLETE", colorSuccess},
}

func colorDot(hex string) string {
	return fg(lipgloss.Color(hex)).Render("●")
}

// heatCell renders one day of a habit history row.
func heatCell(done bool, due bool, hex string) string {
	switch {
	case done:
		return fg(lipgloss.Color(hex)).Render("■")
	case due:
		return fg(colorSubtle).Render("□")
	}
	return mutedStyle.Render("·")
}
