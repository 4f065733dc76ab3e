package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/store"
)

func habitCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "habit",
		Aliases: []string{"habits", "h"},
		Short:   "Manage and track habits",
	}
	cmd.AddCommand(habitAddCmd(e))
	cmd.AddCommand(habitListCmd(e))
	cmd.AddCommand(habitTrackCmd(e))
	cmd.AddCommand(habitUntrackCmd(e))
	cmd.AddCommand(habitArchiveCmd(e))
	cmd.AddCommand(habitRemoveCmd(e))
	return cmd
}

func habitAddCmd(e *env) *cobra.Command {
	var (
		typ, unit, days, category, color, desc string
		target                                 float64
		perWeek                                int
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			t, err := habit.ParseType(typ)
			if err != nil {
				return err
			}
			in := store.HabitInput{
				Name:        args[0],
				Description: desc,
				Color:       color,
				Type:        t,
				Target:      target,
				Unit:        unit,
				Frequency:   habit.Frequency{Kind: habit.Daily},
			}
			// time targets are given in minutes and stored in seconds
			if t == habit.Time {
				in.Target *= 60
			}
			switch {
			case days != "":
				in.Frequency.Kind = habit.Weekdays
				if in.Frequency.Days, err = habit.ParseDays(days); err != nil {
					return err
				}
			case perWeek > 0:
				in.Frequency = habit.Frequency{Kind: habit.Weekly, TimesPerWeek: perWeek}
			}
			if in.CategoryID, err = resolveCategory(s, category); err != nil {
				return err
			}

			h, err := s.CreateHabit(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added habit %d: %s (%s, %s)\n", h.ID, h.Name, h.Type, h.Frequency)
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", string(habit.Binary), "Type: binary, quantity or time")
	cmd.Flags().Float64Var(&target, "target", 1, "Daily target (minutes for time habits)")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "Unit for quantity habits")
	cmd.Flags().StringVar(&days, "days", "", "Only on these weekdays, e.g. mon,wed,fri")
	cmd.Flags().IntVar(&perWeek, "per-week", 0, "Times per week instead of daily")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category name, created when missing")
	cmd.Flags().StringVar(&color, "color", "", "Hex color")
	cmd.Flags().StringVarP(&desc, "desc", "D", "", "Description")
	return cmd
}

func habitListCmd(e *env) *cobra.Command {
	var (
		archived bool
		date     string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List habits with their progress for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			habits, err := s.ListHabits(archived)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(habits) == 0 {
				fmt.Fprintln(out, "No habits.")
				return nil
			}
			records, err := s.ListTracking(store.TrackingFilter{From: &day, To: &day})
			if err != nil {
				return err
			}
			byID := make(map[int64]*store.HabitTracking, len(records))
			for i := range records {
				byID[records[i].HabitID] = &records[i]
			}
			fmt.Fprintln(out, renderHabitTable(habits, byID, day))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "Include archived habits")
	cmd.Flags().StringVarP(&date, "date", "d", "today", "Day to show")
	return cmd
}

func habitTrackCmd(e *env) *cobra.Command {
	var (
		date, note string
		value      float64
		minutes    float64
	)
	cmd := &cobra.Command{
		Use:   "track <id>",
		Short: "Record a habit for a day",
		Long: `Record a habit for a day. Binary habits are marked done; quantity habits
take --value and time habits take --minutes. Without a value the day's
record is incremented by one unit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			h, err := s.GetHabit(id)
			if err != nil {
				return err
			}

			var rec *store.HabitTracking
			switch h.Type {
			case habit.Quantity:
				if cmd.Flags().Changed("value") {
					rec, err = s.TrackHabit(id, day, store.TrackInput{Value: value, Note: note})
				} else {
					rec, err = s.AddTrackingValue(id, day, 1)
				}
			case habit.Time:
				if cmd.Flags().Changed("minutes") {
					rec, err = s.TrackHabit(id, day, store.TrackInput{Duration: int64(minutes * 60), Note: note})
				} else {
					err = fmt.Errorf("time habits need --minutes")
				}
			default:
				rec, err = s.TrackHabit(id, day, store.TrackInput{Completed: true, Note: note})
			}
			if err != nil {
				return err
			}
			h, err = s.GetHabit(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s (streak %d)\n",
				h.Name, calendar.Format(day), h.ProgressLabel(rec), h.CurrentStreak)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "today", "Day to record")
	cmd.Flags().Float64VarP(&value, "value", "v", 0, "Value for quantity habits")
	cmd.Flags().Float64VarP(&minutes, "minutes", "m", 0, "Minutes for time habits")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Note for the day")
	return cmd
}

func habitUntrackCmd(e *env) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "untrack <id>",
		Short: "Remove a habit's record for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.UntrackHabit(id, day); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared habit %d on %s\n", id, calendar.Format(day))
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "today", "Day to clear")
	return cmd
}

func habitArchiveCmd(e *env) *cobra.Command {
	var restore bool
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive or restore a habit",
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
			verb := "Archived"
			if restore {
				verb = "Restored"
				err = s.RestoreHabit(id)
			} else {
				err = s.ArchiveHabit(id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s habit %d\n", verb, id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&restore, "restore", false, "Restore an archived habit")
	return cmd
}

func habitRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a habit and its tracking history",
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
			if err := s.DeleteHabit(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted habit %d\n", id)
			return nil
		},
	}
}

func renderHabitTable(habits []store.Habit, records map[int64]*store.HabitTracking, day time.Time) string {
	done := lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		rec := records[h.ID]
		progress := h.ProgressLabel(rec)
		if rec != nil && rec.Completed {
			progress = done.Render(progress)
		}
		due := "yes"
		if !h.Rule().IsDue(day) {
			due = "no"
		}
		name := h.Name
		if h.Archived {
			name += " (archived)"
		}
		rows = append(rows, []string{
			strconv.FormatInt(h.ID, 10),
			name,
			string(h.Type),
			h.Frequency.String(),
			due,
			progress,
			strconv.Itoa(h.CurrentStreak),
			strconv.Itoa(h.BestStreak),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "HABIT", "TYPE", "FREQUENCY", "DUE", "PROGRESS", "STREAK", "BEST").
		Rows(rows...).
		String()
}
