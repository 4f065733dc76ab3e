package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/store"
)

const historyDays = 14

type habitsModel struct {
	store  *store.Store
	width  int
	height int

	habits       []store.Habit
	records      map[int64]*store.HabitTracking
	history      map[int64]map[time.Time]bool
	categories   []store.Category
	cursor       int
	dayOffset    int // 0 = today, 1 = yesterday, ...
	showArchived bool
	today        time.Time
	bar          progress.Model

	formActive bool
	form       *huh.Form
	formType   string // "habit", "edit_habit", "value"
	editingID  int64

	// Form field pointers (survive value copies)
	formName     *string
	formDesc     *string
	formType_    *string
	formTarget   *string
	formUnit     *string
	formFreq     *string
	formDays     *string
	formPerWeek  *string
	formColor    *string
	formCategory *int64
	formValue    *string
}

func newHabitsModel(s *store.Store) habitsModel {
	name, desc, typ, target, unit := "", "", string(habit.Binary), "1", ""
	freq, days, perWeek, color, value := string(habit.Daily), "", "1", paletteColors[4], ""
	var cat int64
	return habitsModel{
		store:        s,
		today:        calendar.Today(),
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithWidth(16)),
		formName:     &name,
		formDesc:     &desc,
		formType_:    &typ,
		formTarget:   &target,
		formUnit:     &unit,
		formFreq:     &freq,
		formDays:     &days,
		formPerWeek:  &perWeek,
		formColor:    &color,
		formCategory: &cat,
		formValue:    &value,
	}
}

func (m *habitsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m habitsModel) day() time.Time {
	return calendar.AddDays(m.today, -m.dayOffset)
}

type habitsDataMsg struct {
	today      time.Time
	habits     []store.Habit
	records    map[int64]*store.HabitTracking
	history    map[int64]map[time.Time]bool
	categories []store.Category
}

func (m habitsModel) refresh() tea.Cmd {
	offset, archived := m.dayOffset, m.showArchived
	return func() tea.Msg {
		today := calendar.Today()
		day := calendar.AddDays(today, -offset)

		habits, err := m.store.ListHabits(archived)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		records, err := trackingFor(m.store, day)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}

		from := calendar.AddDays(today, -(historyDays - 1))
		recent, err := m.store.ListTracking(store.TrackingFilter{From: &from, To: &today})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		history := make(map[int64]map[time.Time]bool)
		for _, r := range recent {
			if !r.Completed {
				continue
			}
			if history[r.HabitID] == nil {
				history[r.HabitID] = make(map[time.Time]bool)
			}
			history[r.HabitID][r.Date] = true
		}
		categories, err := m.store.ListCategories(false)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}

		return habitsDataMsg{today: today, habits: habits, records: records, history: history, categories: categories}
	}
}

func (m habitsModel) update(msg tea.Msg) (habitsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case habitsDataMsg:
		m.today = msg.today
		m.habits = msg.habits
		m.records = msg.records
		m.history = msg.history
		m.categories = msg.categories
		if m.cursor >= len(m.habits) {
			m.cursor = max(0, len(m.habits)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m habitsModel) selected() *store.Habit {
	if m.cursor < len(m.habits) {
		return &m.habits[m.cursor]
	}
	return nil
}

func (m habitsModel) updateList(msg tea.KeyMsg) (habitsModel, tea.Cmd) {
	h := m.selected()
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.habits)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left):
		m.dayOffset++
		return m, m.refresh()
	case key.Matches(msg, keys.Right):
		if m.dayOffset > 0 {
			m.dayOffset--
			return m, m.refresh()
		}
	case key.Matches(msg, keys.New):
		return m.showHabitForm(nil)
	case key.Matches(msg, keys.Edit):
		if h != nil {
			return m.showHabitForm(h)
		}
	case key.Matches(msg, keys.Toggle):
		if h != nil {
			return m, quickTrackCmd(m.store, *h, m.day())
		}
	case key.Matches(msg, keys.Increment):
		if h != nil && h.Type == habit.Quantity {
			return m, addValueCmd(m.store, h.ID, m.day(), 1)
		}
	case key.Matches(msg, keys.Decrement):
		if h != nil && h.Type == habit.Quantity {
			return m, addValueCmd(m.store, h.ID, m.day(), -1)
		}
	case key.Matches(msg, keys.Value):
		if h != nil && h.Type != habit.Binary {
			return m.showValueForm(*h)
		}
	case key.Matches(msg, keys.Start):
		if h != nil && h.Type == habit.Time {
			hv := *h
			return m, func() tea.Msg { return startTimerMsg{habit: hv} }
		}
	case key.Matches(msg, keys.Stop):
		return m, func() tea.Msg { return stopTimerMsg{} }
	case key.Matches(msg, keys.Archive):
		if h != nil {
			id, archived := h.ID, h.Archived
			return m, func() tea.Msg {
				var err error
				if archived {
					err = m.store.RestoreHabit(id)
				} else {
					err = m.store.ArchiveHabit(id)
				}
				if err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	case key.Matches(msg, keys.ShowDone):
		m.showArchived = !m.showArchived
		return m, m.refresh()
	case key.Matches(msg, keys.Delete):
		if h != nil {
			id := h.ID
			return m, func() tea.Msg {
				if err := m.store.DeleteHabit(id); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	}
	return m, nil
}

// --- Tracking commands shared with the Today view ---

// quickTrackCmd does the obvious thing for a habit on day: toggle a binary
// habit or add one to a quantity habit.
func quickTrackCmd(s *store.Store, h store.Habit, day time.Time) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch h.Type {
		case habit.Quantity:
			_, err = s.AddTrackingValue(h.ID, day, 1)
		case habit.Time:
			return statusMsg{text: "Press s to time " + h.Name + " or v to enter minutes"}
		default:
			_, err = s.ToggleHabit(h.ID, day)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return dataChangedMsg{}
	}
}

func addValueCmd(s *store.Store, habitID int64, day time.Time, delta float64) tea.Cmd {
	return func() tea.Msg {
		if _, err := s.AddTrackingValue(habitID, day, delta); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return dataChangedMsg{}
	}
}

func habitProgress(h store.Habit, rec *store.HabitTracking) float64 {
	if rec == nil {
		return 0
	}
	return h.Rule().Progress(rec.Record())
}

// progressLabel renders "3/8 glasses", "12/30 min" or "done".
func progressLabel(h store.Habit, rec *store.HabitTracking) string {
	return h.ProgressLabel(rec)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// --- Forms ---

func (m habitsModel) categoryOptions() []huh.Option[int64] {
	opts := []huh.Option[int64]{huh.NewOption("None", int64(0))}
	for _, c := range m.categories {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
	}
	return opts
}

func (m habitsModel) showHabitForm(h *store.Habit) (habitsModel, tea.Cmd) {
	m.formType = "habit"
	*m.formName, *m.formDesc = "", ""
	*m.formType_, *m.formTarget, *m.formUnit = string(habit.Binary), "1", ""
	*m.formFreq, *m.formDays, *m.formPerWeek = string(habit.Daily), "", "1"
	*m.formColor, *m.formCategory = paletteColors[4], 0
	if h != nil {
		m.formType = "edit_habit"
		m.editingID = h.ID
		*m.formName, *m.formDesc = h.Name, h.Description
		*m.formType_, *m.formUnit = string(h.Type), h.Unit
		*m.formTarget = targetInput(h.Type, h.Target)
		*m.formFreq = string(h.Frequency.Kind)
		if h.Frequency.Kind == habit.Weekdays {
			*m.formDays = h.Frequency.Days.String()
		}
		*m.formPerWeek = strconv.Itoa(max(h.Frequency.TimesPerWeek, 1))
		*m.formColor = h.Color
		if h.CategoryID != nil {
			*m.formCategory = *h.CategoryID
		}
	}

	colorOptions := make([]huh.Option[string], len(paletteColors))
	for i, c := range paletteColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(m.formName).Validate(required),
			huh.NewInput().Title("Description").Value(m.formDesc),
			huh.NewSelect[string]().Title("Type").Options(
				huh.NewOption("Yes / no", string(habit.Binary)),
				huh.NewOption("Quantity", string(habit.Quantity)),
				huh.NewOption("Time", string(habit.Time)),
			).Value(m.formType_),
			huh.NewInput().Title("Target (count, or minutes for time habits)").Value(m.formTarget).Validate(positiveNumber),
			huh.NewInput().Title("Unit").Placeholder("glasses, pages, min").Value(m.formUnit),
		).Title("Habit"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Frequency").Options(
				huh.NewOption("Every day", string(habit.Daily)),
				huh.NewOption("On weekdays", string(habit.Weekdays)),
				huh.NewOption("Times per week", string(habit.Weekly)),
			).Value(m.formFreq),
			huh.NewInput().Title("Days (for weekdays)").Placeholder("mon,wed,fri").Value(m.formDays).Validate(validDays),
			huh.NewInput().Title("Times per week").Value(m.formPerWeek).Validate(positiveInt),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(m.formColor),
			huh.NewSelect[int64]().Title("Category").Options(m.categoryOptions()...).Value(m.formCategory),
		).Title("Schedule"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m habitsModel) showValueForm(h store.Habit) (habitsModel, tea.Cmd) {
	m.formType = "value"
	m.editingID = h.ID
	title := fmt.Sprintf("%s on %s (%s)", h.Name, calendar.Format(m.day()), h.Unit)
	rec := m.records[h.ID]
	*m.formValue = "0"
	if rec != nil {
		*m.formValue = trimFloat(rec.Value)
	}
	if h.Type == habit.Time {
		title = fmt.Sprintf("%s on %s (minutes)", h.Name, calendar.Format(m.day()))
		if rec != nil {
			*m.formValue = strconv.FormatInt(rec.Duration/60, 10)
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Value(m.formValue).Validate(nonNegativeNumber),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m habitsModel) updateForm(msg tea.Msg) (habitsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		switch m.formType {
		case "habit", "edit_habit":
			return m, m.saveHabit()
		case "value":
			return m, m.saveValue()
		}
	}
	return m, cmd
}

func (m habitsModel) habitInput() (store.HabitInput, error) {
	typ := habit.Type(*m.formType_)
	target, err := strconv.ParseFloat(strings.TrimSpace(*m.formTarget), 64)
	if err != nil {
		return store.HabitInput{}, fmt.Errorf("target: %w", err)
	}
	if typ == habit.Time {
		target *= 60
	}
	freq := habit.Frequency{Kind: habit.FrequencyKind(*m.formFreq)}
	switch freq.Kind {
	case habit.Weekdays:
		if freq.Days, err = habit.ParseDays(*m.formDays); err != nil {
			return store.HabitInput{}, err
		}
	case habit.Weekly:
		if freq.TimesPerWeek, err = strconv.Atoi(strings.TrimSpace(*m.formPerWeek)); err != nil {
			return store.HabitInput{}, fmt.Errorf("times per week: %w", err)
		}
	}
	in := store.HabitInput{
		Name:        *m.formName,
		Description: *m.formDesc,
		Color:       *m.formColor,
		Type:        typ,
		Target:      target,
		Unit:        *m.formUnit,
		Frequency:   freq,
	}
	if *m.formCategory != 0 {
		id := *m.formCategory
		in.CategoryID = &id
	}
	return in, nil
}

func (m habitsModel) saveHabit() tea.Cmd {
	in, err := m.habitInput()
	if err != nil {
		return errCmd(err)
	}
	editing, id := m.formType == "edit_habit", m.editingID
	return func() tea.Msg {
		if editing {
			err = m.store.UpdateHabit(id, in)
		} else {
			_, err = m.store.CreateHabit(in)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return dataChangedMsg{}
	}
}

func (m habitsModel) saveValue() tea.Cmd {
	v, err := strconv.ParseFloat(strings.TrimSpace(*m.formValue), 64)
	if err != nil {
		return errCmd(err)
	}
	var h *store.Habit
	for i := range m.habits {
		if m.habits[i].ID == m.editingID {
			h = &m.habits[i]
		}
	}
	if h == nil {
		return nil
	}
	in := store.TrackInput{Value: v}
	if rec := m.records[h.ID]; rec != nil {
		in = store.TrackInput{Value: rec.Value, Duration: rec.Duration, Note: rec.Note}
	}
	if h.Type == habit.Time {
		in.Duration = int64(v * 60)
	} else {
		in.Value = v
	}
	id, day := h.ID, m.day()
	return func() tea.Msg {
		if _, err := m.store.TrackHabit(id, day, in); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return dataChangedMsg{}
	}
}

func targetInput(t habit.Type, target float64) string {
	if t == habit.Time {
		return trimFloat(target / 60)
	}
	return trimFloat(target)
}

// --- Validators ---

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func positiveNumber(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("enter a number above zero")
	}
	return nil
}

func nonNegativeNumber(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return fmt.Errorf("enter zero or more")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a whole number above zero")
	}
	return nil
}

func validDays(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := habit.ParseDays(s)
	return err
}

// --- View ---

func (m habitsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Habit")
		switch m.formType {
		case "edit_habit":
			title = titleStyle.Render("Edit Habit")
		case "value":
			title = titleStyle.Render("Track")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()))
	}

	dayLabel := "today"
	if m.dayOffset > 0 {
		dayLabel = m.day().Format("Mon Jan 2")
	}
	title := titleStyle.Render("Habits") + "  " + mutedStyle.Render("tracking "+dayLabel)
	if m.showArchived {
		title += mutedStyle.Render("  (with archived)")
	}

	if len(m.habits) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No habits yet. Press n to create one."),
		))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %-16s %-16s %-14s %7s  %s",
		"Name", "Schedule", "Progress", "", "Streak", "Last 14 days")))

	start, end := window(m.cursor, len(m.habits), max(m.height-10, 3))
	for i := start; i < end; i++ {
		h := m.habits[i]
		cursor, style := "  ", normalItemStyle
		if i == m.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		if h.Archived {
			style = doneItemStyle
		}
		rec := m.records[h.ID]
		name := fmt.Sprintf("%s %-20s", colorDot(h.Color), h.Name)
		streak := fmt.Sprintf("%3d/%-3d", h.CurrentStreak, h.BestStreak)
		rows = append(rows, fmt.Sprintf("%s %s %s %-14s %s  %s",
			style.Render(cursor+name),
			mutedStyle.Render(fmt.Sprintf("%-16s", h.Frequency.String())),
			m.bar.ViewAs(habitProgress(h, rec)),
			progressLabel(h, rec),
			highlightStyle.Render(streak),
			m.heatmap(h),
		))
	}

	rows = append(rows, "",
		mutedStyle.Render("  space: done/+1  +/-: adjust  v: set value  s/x: timer  ←/→: day"),
		mutedStyle.Render("  n: new  E: edit  a: archive/restore  H: show archived  d: delete"),
	)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m habitsModel) heatmap(h store.Habit) string {
	rule := h.Rule()
	var b strings.Builder
	for i := historyDays - 1; i >= 0; i-- {
		d := calendar.AddDays(m.today, -i)
		b.WriteString(heatCell(m.history[h.ID][d], rule.IsDue(d), h.Color))
	}
	return b.String()
}
