package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitask/internal/store"
)

// categoriesModel manages categories from inside the Tasks view.
type categoriesModel struct {
	store  *store.Store
	width  int
	height int

	categories []store.Category
	cursor     int

	formActive bool
	form       *huh.Form
	editingID  int64
	formName   *string
	formColor  *string
}

func newCategoriesModel(s *store.Store) categoriesModel {
	name, color := "", paletteColors[0]
	return categoriesModel{store: s, formName: &name, formColor: &color}
}

type categoriesDataMsg struct {
	categories []store.Category
}

func (m categoriesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		cats, err := m.store.ListCategories(true)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return categoriesDataMsg{categories: cats}
	}
}

func (m categoriesModel) selected() *store.Category {
	if m.cursor < len(m.categories) {
		return &m.categories[m.cursor]
	}
	return nil
}

func (m categoriesModel) update(msg tea.Msg) (categoriesModel, tea.Cmd) {
	if data, ok := msg.(categoriesDataMsg); ok {
		m.categories = data.categories
		if m.cursor >= len(m.categories) {
			m.cursor = max(0, len(m.categories)-1)
		}
		return m, nil
	}
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	c := m.selected()
	switch {
	case key.Matches(msgKey, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msgKey, keys.Down):
		if m.cursor < len(m.categories)-1 {
			m.cursor++
		}
	case key.Matches(msgKey, keys.New):
		return m.showForm(nil)
	case key.Matches(msgKey, keys.Edit):
		if c != nil {
			return m.showForm(c)
		}
	case key.Matches(msgKey, keys.Archive):
		if c != nil && !c.Archived {
			id := c.ID
			return m, func() tea.Msg {
				if err := m.store.ArchiveCategory(id); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	case key.Matches(msgKey, keys.Delete):
		if c != nil {
			id := c.ID
			return m, func() tea.Msg {
				if err := m.store.DeleteCategory(id); err != nil {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
				return dataChangedMsg{}
			}
		}
	}
	return m, nil
}

func (m categoriesModel) showForm(c *store.Category) (categoriesModel, tea.Cmd) {
	m.editingID = 0
	*m.formName, *m.formColor = "", paletteColors[len(m.categories)%len(paletteColors)]
	if c != nil {
		m.editingID = c.ID
		*m.formName = c.Name
		if c.Color != "" {
			*m.formColor = c.Color
		}
	}

	colorOptions := make([]huh.Option[string], len(paletteColors))
	for i, col := range paletteColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", col), col)
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category Name").Value(m.formName).Validate(required),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(m.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m categoriesModel) updateForm(msg tea.Msg) (categoriesModel, tea.Cmd) {
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
		id, name, color := m.editingID, *m.formName, *m.formColor
		return m, func() tea.Msg {
			var err error
			if id != 0 {
				err = m.store.UpdateCategory(id, name, color)
			} else {
				_, err = m.store.CreateCategory(name, color)
			}
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			return dataChangedMsg{}
		}
	}
	return m, cmd
}

func (m categoriesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Category")
		if m.editingID != 0 {
			title = titleStyle.Render("Edit Category")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()))
	}

	rows := []string{titleStyle.Render("Categories"), ""}
	if len(m.categories) == 0 {
		rows = append(rows, mutedStyle.Render("No categories yet. Press n to create one."))
	}
	for i, c := range m.categories {
		cursor, style := "  ", normalItemStyle
		if i == m.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		line := cursor + colorDot(c.Color) + " " + c.Name
		if c.Archived {
			style = doneItemStyle
			line += " (archived)"
		}
		rows = append(rows, style.Render(line))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: show tasks  n: new  E: edit  a: archive  d: delete  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
