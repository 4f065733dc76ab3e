package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/recur"
	"github.com/sadopc/habitask/internal/store"
	"github.com/sadopc/habitask/internal/tasklist"
)

const defaultCategoryColor = "#6C63FF"

func taskCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Add, list and complete tasks",
	}
	cmd.AddCommand(taskAddCmd(e))
	cmd.AddCommand(taskListCmd(e))
	cmd.AddCommand(taskStatusCmd(e, "done", "Mark a task completed", store.StatusCompleted))
	cmd.AddCommand(taskStatusCmd(e, "start", "Mark a task in progress", store.StatusInProgress))
	cmd.AddCommand(taskStatusCmd(e, "reopen", "Mark a task pending again", store.StatusPending))
	cmd.AddCommand(taskRemoveCmd(e))
	return cmd
}

func taskAddCmd(e *env) *cobra.Command {
	var (
		desc, due, start, priority, category, tags, repeat string
		every                                              int
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			in := store.TaskInput{
				Title:       strings.Join(args, " "),
				Description: desc,
			}
			if in.Priority, err = parsePriority(priority); err != nil {
				return err
			}
			if in.DueDate, err = parseDateFlag("due", due); err != nil {
				return err
			}
			if in.StartDate, err = parseDateFlag("start", start); err != nil {
				return err
			}
			if repeat != "" {
				rule, err := recur.ParseRule(repeat)
				if err != nil {
					return err
				}
				in.Recurrence = recur.Recurrence{Rule: rule, Interval: every}
			}
			if in.CategoryID, err = resolveCategory(s, category); err != nil {
				return err
			}
			if names := splitList(tags); len(names) > 0 {
				ts, err := s.EnsureTags(names)
				if err != nil {
					return err
				}
				for _, t := range ts {
					in.TagIDs = append(in.TagIDs, t.ID)
				}
			}

			t, err := s.CreateTask(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s\n", t.ID, t.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "desc", "D", "", "Description")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (YYYY-MM-DD, today or tomorrow)")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "none", "Priority: none, low, medium or high")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category name, created when missing")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	cmd.Flags().StringVarP(&repeat, "repeat", "r", "", "Repeat: daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&every, "every", 1, "Repeat interval")
	return cmd
}

func taskListCmd(e *env) *cobra.Command {
	var (
		all                     bool
		window, sortKey, search string
		category                string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			w, err := tasklist.ParseWindow(window)
			if err != nil {
				return err
			}
			key, err := tasklist.ParseSortKey(sortKey)
			if err != nil {
				return err
			}

			tasks, err := s.ListTasks(store.TaskQuery{IncludeDone: all})
			if err != nil {
				return err
			}
			cats, err := s.CategoryMap()
			if err != nil {
				return err
			}
			f := tasklist.Filter{Window: w, Query: search}
			if category != "" {
				id, ok := findCategory(cats, category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				f.CategoryID = &id
			}

			today := calendar.Today()
			tasks = tasklist.Apply(tasks, f, key, today)
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			fmt.Fprintln(out, renderTaskTable(tasks, cats, today))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	cmd.Flags().StringVarP(&window, "window", "w", "all", "Due window: all, today, overdue, upcoming or no_date")
	cmd.Flags().StringVarP(&sortKey, "sort", "s", "due", "Sort by due, priority, created or title")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Match title or description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only tasks in this category")
	return cmd
}

func taskStatusCmd(e *env, use, short string, status store.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			next, err := s.SetTaskStatus(id, status)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %d is now %s\n", id, statusLabel(status))
			if next != nil && next.DueDate != nil {
				fmt.Fprintf(out, "Next occurrence %d due %s\n", next.ID, calendar.Format(*next.DueDate))
			}
			return nil
		},
	}
}

func taskRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task with its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.DeleteTask(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}

func renderTaskTable(tasks []store.Task, cats map[int64]*store.Category, today time.Time) string {
	overdue := lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = calendar.Format(*t.DueDate)
			if tasklist.IsOverdue(t, today) {
				due = overdue.Render(due)
			}
		}
		title := t.Title
		if t.Recurrence.Repeats() {
			title += " (" + t.Recurrence.String() + ")"
		}
		if done, total := t.SubtaskProgress(); total > 0 {
			title += fmt.Sprintf(" [%d/%d]", done, total)
		}
		category := ""
		if t.CategoryID != nil {
			if c, ok := cats[*t.CategoryID]; ok {
				category = c.Name
			}
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			statusLabel(t.Status),
			t.Priority.String(),
			due,
			title,
			category,
			tagList(t.Tags),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PRIORITY", "DUE", "TITLE", "CATEGORY", "TAGS").
		Rows(rows...).
		String()
}

func statusLabel(s store.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func tagList(tags []store.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ",")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parsePriority(s string) (store.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "0":
		return store.PriorityNone, nil
	case "low", "1":
		return store.PriorityLow, nil
	case "medium", "med", "2":
		return store.PriorityMedium, nil
	case "high", "3":
		return store.PriorityHigh, nil
	}
	return store.PriorityNone, fmt.Errorf("unknown priority %q", s)
}

// parseDate accepts YYYY-MM-DD plus the words today and tomorrow.
func parseDate(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return calendar.Today(), nil
	case "tomorrow":
		return calendar.AddDays(calendar.Today(), 1), nil
	case "yesterday":
		return calendar.AddDays(calendar.Today(), -1), nil
	}
	return calendar.Parse(strings.TrimSpace(s))
}

func parseDateFlag(name, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func findCategory(cats map[int64]*store.Category, name string) (int64, bool) {
	for id, c := range cats {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return id, true
		}
	}
	return 0, false
}

// resolveCategory looks a category up by name and creates it when missing.
func resolveCategory(s *store.Store, name string) (*int64, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	cats, err := s.CategoryMap()
	if err != nil {
		return nil, err
	}
	if id, ok := findCategory(cats, name); ok {
		return &id, nil
	}
	c, err := s.CreateCategory(name, defaultCategoryColor)
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}
