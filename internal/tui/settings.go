package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitask/internal/store"
)

// settingField is one editable row of the settings form.
type settingField struct {
	key      string
	title    string
	group    string
	fallback string
	minutes  bool // stored in seconds, edited in minutes
	unit     string
	validate func(string) error
}

var settingFields = []settingField{
	{key: store.SettingPomodoroWork, title: "Pomodoro work (min)", group: "Pomodoro", fallback: "1500", minutes: true, validate: positiveInt},
	{key: store.SettingPomodoroBreak, title: "Pomodoro break (min)", group: "Pomodoro", fallback: "300", minutes: true, validate: positiveInt},
	{key: store.SettingPomodoroLongBreak, title: "Long break (min)", group: "Pomodoro", fallback: "900", minutes: true, validate: positiveInt},
	{key: store.SettingPomodoroCount, title: "Pomodoros per session", group: "Pomodoro", fallback: "4", validate: positiveInt},
	{key: store.SettingIdleTimeout, title: "Habit timer idle timeout (min, 0 = off)", group: "General", fallback: "300", minutes: true, validate: nonNegativeInt},
	{key: store.SettingDailyTaskGoal, title: "Daily task goal", group: "General", fallback: "5", unit: "tasks", validate: positiveInt},
	{key: store.SettingWeekStart, title: "Week starts on", group: "General", fallback: "monday"},
}

var weekStartOptions = []huh.Option[string]{
	huh.NewOption("Monday", "monday"),
	huh.NewOption("Sunday", "sunday"),
	huh.NewOption("Saturday", "saturday"),
}

func lookupField(k string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == k {
			return f, true
		}
	}
	return settingField{}, false
}

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// form values by key, as pointers so they survive value copies
	values map[string]*string
}

func newSettingsModel(s *store.Store) settingsModel {
	values := make(map[string]*string, len(settingFields))
	for _, f := range settingFields {
		values[f.key] = new(string)
	}
	return settingsModel{store: s, values: values}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	groups := map[string][]huh.Field{}
	var order []string
	for _, f := range settingFields {
		v := s.getVal(f.key, f.fallback)
		if f.minutes {
			v = secsToMin(v)
		}
		*s.values[f.key] = v

		var field huh.Field
		if f.key == store.SettingWeekStart {
			field = huh.NewSelect[string]().Title(f.title).Options(weekStartOptions...).Value(s.values[f.key])
		} else {
			field = huh.NewInput().Title(f.title).Value(s.values[f.key]).Validate(f.validate)
		}
		if _, ok := groups[f.group]; !ok {
			order = append(order, f.group)
		}
		groups[f.group] = append(groups[f.group], field)
	}

	var hg []*huh.Group
	for _, name := range order {
		hg = append(hg, huh.NewGroup(groups[name]...).Title(name))
	}
	s.form = huh.NewForm(hg...).WithShowHelp(true).WithShowErrors(true)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, errCmd(err)
		}
		return s, tea.Batch(changedCmd, statusCmd("Settings saved"))
	}
	return s, cmd
}

// saveSettings writes the form back. A changed week start reshapes weekly
// streaks, so streaks are recomputed afterwards.
func (s settingsModel) saveSettings() error {
	values := make([]store.Setting, 0, len(settingFields))
	for _, f := range settingFields {
		v := strings.TrimSpace(*s.values[f.key])
		if f.minutes {
			v = minToSecs(v)
		}
		values = append(values, store.Setting{Key: f.key, Value: v})
	}
	weekChanged := s.getVal(store.SettingWeekStart, "monday") != *s.values[store.SettingWeekStart]
	if err := s.store.SetSettings(values); err != nil {
		return err
	}
	if weekChanged {
		return s.store.RefreshStreaks()
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	f, ok := lookupField(k)
	switch {
	case !ok:
		return v
	case f.minutes:
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", secs/60)
		}
	case f.unit != "":
		return v + " " + f.unit
	}
	return v
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number, zero or more")
	}
	return nil
}

func secsToMin(s string) string {
	if secs, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(secs / 60)
	}
	return s
}

func minToSecs(s string) string {
	s = strings.TrimSpace(s)
	if mins, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(mins * 60)
	}
	return s
}
