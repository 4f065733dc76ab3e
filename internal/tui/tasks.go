package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/recur"
	"github.com/sadopc/habitask/internal/store"
	"github.com/sadopc/habitask/internal/tasklist"
)

type tasksMode int

const (
	modeTaskList tasksMode = iota
	modeSubtasks
	modeCategories
)

type tasksModel struct {
	store  *store.Store
	width  int
	height int

	mode      tasksMode
	all       []store.Task
	visible   []store.Task
	catMap    map[int64]*store.Category
	cats      []store.Category
	cursor    int
	subCursor int
	detailID  int64
	today     time.Time

	filter   tasklist.Filter
	sortKey  tasklist.SortKey
	showDone bool

	searching bool
	search    textinput.Model

	categories categoriesModel

	formActive bool
	form       *huh.Form
	formType   string // "task", "edit_task", "subtask"
	editingID  int64

	// Form field pointers (survive value copies)
	formTitle      *string
	formDesc       *string
	formPriority   *int
	formCategory   *int64
	formDue        *string
	formStart      *string
	formRecurrence *string
	formInterval   *string
	formTags       *string
	formSubtask    *string
}

func newTasksModel(s *store.Store) tasksModel {
	search := textinput.New()
	search.Placeholder = "search title or description"
	search.Prompt = "/ "
	search.CharLimit = 80

	title, desc, due, start, rec, interval, tags, sub := "", "", "", "", string(recur.None), "1", "", ""
	priority := int(store.PriorityNone)
	var cat int64
	return tasksModel{
		store:          s,
		today:          calendar.Today(),
		filter:         tasklist.Filter{Window: tasklist.WindowAll},
		sortKey:        tasklist.SortDue,
		search:         search,
		categories:     newCategoriesModel(s),
		formTitle:      &title,
		formDesc:       &desc,
		formPriority:   &priority,
		formCategory:   &cat,
		formDue:        &due,
		formStart:      &start,
		formRecurrence: &rec,
		formInterval:   &interval,
		formTags:       &tags,
		formSubtask:    &sub,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.categories.width = w
	m.categories.height = h
	m.search.Width = max(w-12, 10)
}

// capturing reports whether keys should go to a form or text input rather
// than the global bindings.
func (m tasksModel) capturing() bool {
	return m.formActive || m.searching || (m.mode == modeCategories && m.categories.formActive)
}

type tasksDataMsg struct {
	today  time.Time
	tasks  []store.Task
	cats   []store.Category
	catMap map[int64]*store.Category
}

func (m tasksModel) refresh() tea.Cmd {
	showDone := m.showDone
	return tea.Batch(func() tea.Msg {
		tasks, err := m.store.ListTasks(store.TaskQuery{IncludeDone: showDone})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		cats, err := m.store.ListCategories(false)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		catMap, err := m.store.CategoryMap()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return tasksDataMsg{today: calendar.Today(), tasks: tasks, cats: cats, catMap: catMap}
	}, m.categories.refresh())
}

func (m *tasksModel) apply() {
	m.visible = tasklist.Apply(m.all, m.filter, m.sortKey, m.today)
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
}

func (m tasksModel) selected() *store.Task {
	if m.cursor < len(m.visible) {
		return &m.visible[m.cursor]
	}
	return nil
}

func (m tasksModel) detail() *store.Task {
	for i := range m.all {
		if m.all[i].ID == m.detailID {
			return &m.all[i]
		}
	}
	return nil
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if data, ok := msg.(tasksDataMsg); ok {
		m.today = data.today
		m.all = data.tasks
		m.cats = data.cats
		m.catMap = data.catMap
		m.apply()
		return m, nil
	}
	if data, ok := msg.(categoriesDataMsg); ok {
		var cmd tea.Cmd
		m.categories, cmd = m.categories.update(data)
		return m, cmd
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}
	if m.searching {
		return m.updateSearch(msg)
	}

	switch m.mode {
	case modeSubtasks:
		if msg, ok := msg.(tea.KeyMsg); ok {
			return m.updateSubtasks(msg)
		}
		return m, nil
	case modeCategories:
		if msg, ok := msg.(tea.KeyMsg); ok && !m.categories.formActive {
			switch {
			case key.Matches(msg, keys.Back):
				m.mode = modeTaskList
				return m, nil
			case key.Matches(msg, keys.Enter):
				if c := m.categories.selected(); c != nil {
					id := c.ID
					m.filter.CategoryID = &id
					m.mode = modeTaskList
					m.apply()
					return m, statusCmd("Showing category " + c.Name)
				}
			}
		}
		var cmd tea.Cmd
		m.categories, cmd = m.categories.update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	t := m.selected()
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showTaskForm(nil)
	case key.Matches(msg, keys.Edit):
		if t != nil {
			return m.showTaskForm(t)
		}
	case key.Matches(msg, keys.Toggle):
		if t != nil {
			return m, toggleTaskCmd(m.store, t.ID)
		}
	case key.Matches(msg, keys.Start):
		if t != nil && t.Status == store.StatusPending {
			id := t.ID
			return m, func() tea.Msg {
				if _, err := m.store.SetTaskStatus(id, store.StatusInProgress); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	case key.Matches(msg, keys.Delete):
		if t != nil {
			id := t.ID
			return m, func() tea.Msg {
				if err := m.store.DeleteTask(id); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	case key.Matches(msg, keys.Enter):
		if t != nil {
			m.detailID = t.ID
			m.subCursor = 0
			m.mode = modeSubtasks
		}
	case key.Matches(msg, keys.Filter):
		m.filter.Window = m.filter.Window.Next()
		m.apply()
	case key.Matches(msg, keys.Sort):
		m.sortKey = m.sortKey.Next()
		m.apply()
	case key.Matches(msg, keys.Search):
		m.searching = true
		m.search.SetValue(m.filter.Query)
		return m, m.search.Focus()
	case key.Matches(msg, keys.ShowDone):
		m.showDone = !m.showDone
		return m, m.refresh()
	case key.Matches(msg, keys.Categories):
		m.mode = modeCategories
		return m, m.categories.refresh()
	case key.Matches(msg, keys.Back):
		if m.filter.CategoryID != nil || m.filter.Query != "" {
			m.filter.CategoryID = nil
			m.filter.Query = ""
			m.apply()
			return m, statusCmd("Filters cleared")
		}
	case key.Matches(msg, keys.Copy):
		if t != nil {
			if err := clipboard.WriteAll(t.Title); err != nil {
				return m, errCmd(err)
			}
			return m, statusCmd("Copied: " + t.Title)
		}
	}
	return m, nil
}

func (m tasksModel) updateSearch(msg tea.Msg) (tasksModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "esc":
			m.searching = false
			m.search.Blur()
			m.filter.Query = ""
			m.apply()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filter.Query = m.search.Value()
	m.apply()
	return m, cmd
}

func (m tasksModel) updateSubtasks(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	t := m.detail()
	if t == nil {
		m.mode = modeTaskList
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		m.mode = modeTaskList
	case key.Matches(msg, keys.Up):
		if m.subCursor > 0 {
			m.subCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.subCursor < len(t.Subtasks)-1 {
			m.subCursor++
		}
	case key.Matches(msg, keys.New):
		m.formType = "subtask"
		m.editingID = t.ID
		*m.formSubtask = ""
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Subtask").Value(m.formSubtask).Validate(required),
			),
		).WithShowHelp(true).WithShowErrors(true)
		m.formActive = true
		return m, m.form.Init()
	case key.Matches(msg, keys.Toggle):
		if m.subCursor < len(t.Subtasks) {
			id := t.Subtasks[m.subCursor].ID
			return m, func() tea.Msg {
				if err := m.store.ToggleSubtask(id); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	case key.Matches(msg, keys.Delete):
		if m.subCursor < len(t.Subtasks) {
			id := t.Subtasks[m.subCursor].ID
			if m.subCursor > 0 && m.subCursor == len(t.Subtasks)-1 {
				m.subCursor--
			}
			return m, func() tea.Msg {
				if err := m.store.DeleteSubtask(id); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	}
	return m, nil
}

// toggleTaskCmd completes or reopens a task, reporting a spawned next
// occurrence when the task repeats.
func toggleTaskCmd(s *store.Store, id int64) tea.Cmd {
	return func() tea.Msg {
		next, err := s.ToggleTask(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		if next != nil && next.DueDate != nil {
			return tea.BatchMsg{
				changedCmd,
				statusCmd(fmt.Sprintf("Next occurrence due %s", calendar.Format(*next.DueDate))),
			}
		}
		return dataChangedMsg{}
	}
}

// --- Forms ---

func (m tasksModel) categoryOptions() []huh.Option[int64] {
	opts := []huh.Option[int64]{huh.NewOption("None", int64(0))}
	for _, c := range m.cats {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
	}
	return opts
}

func (m tasksModel) showTaskForm(t *store.Task) (tasksModel, tea.Cmd) {
	m.formType = "task"
	*m.formTitle, *m.formDesc = "", ""
	*m.formPriority, *m.formCategory = int(store.PriorityNone), 0
	*m.formDue, *m.formStart = "", ""
	*m.formRecurrence, *m.formInterval = string(recur.None), "1"
	*m.formTags = ""
	if m.filter.CategoryID != nil {
		*m.formCategory = *m.filter.CategoryID
	}
	if t != nil {
		m.formType = "edit_task"
		m.editingID = t.ID
		*m.formTitle, *m.formDesc = t.Title, t.Description
		*m.formPriority = int(t.Priority)
		*m.formCategory = 0
		if t.CategoryID != nil {
			*m.formCategory = *t.CategoryID
		}
		if t.DueDate != nil {
			*m.formDue = calendar.Format(*t.DueDate)
		}
		if t.StartDate != nil {
			*m.formStart = calendar.Format(*t.StartDate)
		}
		rec := t.Recurrence.Normalize()
		*m.formRecurrence = string(rec.Rule)
		*m.formInterval = strconv.Itoa(max(rec.Interval, 1))
		names := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			names[i] = tag.Name
		}
		*m.formTags = strings.Join(names, ", ")
	}

	priorityOptions := make([]huh.Option[int], 0, 4)
	for p := store.PriorityNone; p <= store.PriorityHigh; p++ {
		priorityOptions = append(priorityOptions, huh.NewOption(p.String(), int(p)))
	}
	ruleOptions := make([]huh.Option[string], len(recur.Rules))
	for i, r := range recur.Rules {
		ruleOptions[i] = huh.NewOption(string(r), string(r))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle).Validate(required),
			huh.NewText().Title("Description").Value(m.formDesc).Lines(3),
			huh.NewSelect[int]().Title("Priority").Options(priorityOptions...).Value(m.formPriority),
			huh.NewSelect[int64]().Title("Category").Options(m.categoryOptions()...).Value(m.formCategory),
		).Title("Task"),
		huh.NewGroup(
			huh.NewInput().Title("Due date").Placeholder("YYYY-MM-DD").Value(m.formDue).Validate(optionalDate),
			huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").Value(m.formStart).Validate(optionalDate),
			huh.NewSelect[string]().Title("Repeats").Options(ruleOptions...).Value(m.formRecurrence),
			huh.NewInput().Title("Every").Value(m.formInterval).Validate(positiveInt),
			huh.NewInput().Title("Tags").Placeholder("home, errands").Value(m.formTags),
		).Title("Schedule"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
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
		case "task", "edit_task":
			return m, m.saveTask()
		case "subtask":
			taskID, title := m.editingID, *m.formSubtask
			return m, func() tea.Msg {
				if _, err := m.store.AddSubtask(taskID, title); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	}
	return m, cmd
}

func optionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := calendar.Parse(strings.TrimSpace(s))
	return err
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := calendar.Parse(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (m tasksModel) taskInput() (store.TaskInput, error) {
	in := store.TaskInput{
		Title:       *m.formTitle,
		Description: *m.formDesc,
		Priority:    store.Priority(*m.formPriority),
	}
	if *m.formCategory != 0 {
		id := *m.formCategory
		in.CategoryID = &id
	}
	var err error
	if in.DueDate, err = parseOptionalDate(*m.formDue); err != nil {
		return in, err
	}
	if in.StartDate, err = parseOptionalDate(*m.formStart); err != nil {
		return in, err
	}
	rule, err := recur.ParseRule(*m.formRecurrence)
	if err != nil {
		return in, err
	}
	interval, err := strconv.Atoi(strings.TrimSpace(*m.formInterval))
	if err != nil {
		return in, fmt.Errorf("interval: %w", err)
	}
	in.Recurrence = recur.Recurrence{Rule: rule, Interval: interval}.Normalize()
	return in, nil
}

func (m tasksModel) saveTask() tea.Cmd {
	in, err := m.taskInput()
	if err != nil {
		return errCmd(err)
	}
	editing, id, tagNames := m.formType == "edit_task", m.editingID, splitTags(*m.formTags)
	return func() tea.Msg {
		tags, err := m.store.EnsureTags(tagNames)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		for _, t := range tags {
			in.TagIDs = append(in.TagIDs, t.ID)
		}
		if editing {
			err = m.store.UpdateTask(id, in)
		} else {
			_, err = m.store.CreateTask(in)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return dataChangedMsg{}
	}
}

// --- View ---

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		switch m.formType {
		case "edit_task":
			title = titleStyle.Render("Edit Task")
		case "subtask":
			title = titleStyle.Render("New Subtask")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()))
	}

	switch m.mode {
	case modeSubtasks:
		return m.viewDetail(w)
	case modeCategories:
		return m.categories.view()
	}
	return m.viewList(w)
}

func (m tasksModel) filterLine() string {
	parts := []string{
		"window: " + m.filter.Window.Label(),
		"sort: " + string(m.sortKey),
	}
	if m.filter.CategoryID != nil {
		if c, ok := m.catMap[*m.filter.CategoryID]; ok {
			parts = append(parts, "category: "+c.Name)
		}
	}
	if m.filter.Query != "" && !m.searching {
		parts = append(parts, fmt.Sprintf("search: %q", m.filter.Query))
	}
	if m.showDone {
		parts = append(parts, "showing done")
	}
	return mutedStyle.Render(strings.Join(parts, "  |  "))
}

func (m tasksModel) viewList(w int) string {
	title := titleStyle.Render("Tasks") + "  " + mutedStyle.Render(fmt.Sprintf("%d of %d", len(m.visible), len(m.all)))
	rows := []string{title, m.filterLine()}
	if m.searching {
		rows = append(rows, m.search.View())
	}
	rows = append(rows, "")

	if len(m.visible) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks match. Press n to add one, f to change the window."))
	} else {
		start, end := window(m.cursor, len(m.visible), max(m.height-11, 3))
		for i := start; i < end; i++ {
			rows = append(rows, m.renderTask(m.visible[i], i == m.cursor))
		}
	}

	rows = append(rows, "",
		mutedStyle.Render("  space: done  s: start  enter: subtasks  n: new  E: edit  d: delete  y: copy"),
		mutedStyle.Render("  f: window  o: sort  /: search  H: show done  c: categories  esc: clear filters"),
	)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m tasksModel) renderTask(t store.Task, selected bool) string {
	cursor, style := "  ", normalItemStyle
	if selected {
		cursor, style = "> ", selectedItemStyle
	}
	check := "[ ]"
	switch t.Status {
	case store.StatusCompleted:
		check, style = "[x]", doneItemStyle
	case store.StatusInProgress:
		check = "[~]"
	}

	line := fmt.Sprintf("%s%s %s %s", cursor, check,
		priorityStyles[t.Priority].Render(fmt.Sprintf("%-3s", priorityMarks[t.Priority])),
		style.Render(t.Title))

	if t.CategoryID != nil {
		if c, ok := m.catMap[*t.CategoryID]; ok {
			line += " " + colorDot(c.Color) + mutedStyle.Render(" "+c.Name)
		}
	}
	for _, tag := range t.Tags {
		line += " " + accentStyle.Render("#"+tag.Name)
	}
	if done, total := t.SubtaskProgress(); total > 0 {
		line += mutedStyle.Render(fmt.Sprintf(" (%d/%d)", done, total))
	}
	if t.DueDate != nil {
		due := "due " + calendar.Format(*t.DueDate)
		switch {
		case tasklist.IsOverdue(t, m.today):
			due = errorStyle.Render(due)
		case calendar.Day(*t.DueDate).Equal(m.today):
			due = warningStyle.Render(due)
		default:
			due = mutedStyle.Render(due)
		}
		line += "  " + due
	}
	if t.Recurrence.Repeats() {
		line += mutedStyle.Render(" ↻ " + t.Recurrence.String())
	}
	return line
}

func (m tasksModel) viewDetail(w int) string {
	t := m.detail()
	if t == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Task not found"))
	}
	rows := []string{titleStyle.Render(t.Title)}
	if t.Description != "" {
		rows = append(rows, normalItemStyle.Render(t.Description))
	}
	meta := []string{"status: " + string(t.Status), "priority: " + t.Priority.String()}
	if t.StartDate != nil {
		meta = append(meta, "start: "+calendar.Format(*t.StartDate))
	}
	if t.DueDate != nil {
		meta = append(meta, "due: "+calendar.Format(*t.DueDate))
		if t.Recurrence.Repeats() {
			meta = append(meta, "repeats "+t.Recurrence.String(),
				"next: "+calendar.Format(tasklist.NextOccurrence(*t.DueDate, t.Recurrence)))
		}
	}
	if t.CompletedAt != nil {
		meta = append(meta, "completed: "+t.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	rows = append(rows, mutedStyle.Render(strings.Join(meta, "  |  ")), "")

	done, total := t.SubtaskProgress()
	rows = append(rows, headerStyle.Render(fmt.Sprintf("Subtasks %d/%d", done, total)))
	if total == 0 {
		rows = append(rows, mutedStyle.Render("  No subtasks. Press n to add one."))
	}
	for i, st := range t.Subtasks {
		cursor, style, check := "  ", normalItemStyle, "[ ]"
		if i == m.subCursor {
			cursor, style = "> ", selectedItemStyle
		}
		if st.Completed {
			check, style = "[x]", doneItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, check, st.Title)))
	}
	rows = append(rows, "", mutedStyle.Render("  space: toggle  n: add  d: delete  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
