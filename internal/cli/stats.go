package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/stats"
)

func statsCmd(e *env) *cobra.Command {
	var (
		granularity, from, to string
		offset                int
		periods               bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise tasks, habits and focus time",
		Long: `Summarise tasks, habits and focus time. By default the window matches the
statistics screen: 14 days, 8 weeks or 6 months ending in the current
period. --from and --to pick an explicit range instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := stats.ParseGranularity(granularity)
			if err != nil {
				return err
			}
			if offset < 0 {
				return fmt.Errorf("--offset must not be negative")
			}
			s, err := e.open()
			if err != nil {
				return err
			}

			today := calendar.Today()
			start, end := stats.Range(g, today, offset, s.WeekStart())
			if from != "" {
				if start, err = parseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if end, err = parseDate(to); err != nil {
					return err
				}
			}
			if end.Before(start) {
				return fmt.Errorf("range ends before it starts")
			}

			in, err := stats.Load(s, start, end, today)
			if err != nil {
				return err
			}
			summary := stats.Summarize(in)
			out := cmd.OutOrStdout()
			fmt.Fprint(out, summary.Text())
			if periods {
				buckets := stats.Bucket(summary.Daily, start, end, g, in.WeekStart)
				fmt.Fprintln(out, renderPeriodTable(buckets, g))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&granularity, "range", "g", "day", "Granularity: day, week or month")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Windows back from the current one")
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&periods, "periods", "p", false, "Also print a row per period")
	return cmd
}

func renderPeriodTable(periods []stats.Period, g stats.Granularity) string {
	rows := make([][]string, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, []string{
			p.Label(g),
			strconv.Itoa(p.TasksCompleted),
			fmt.Sprintf("%d/%d", p.HabitsDone, p.HabitsDue),
			stats.Percent(p.HabitRate()),
			stats.FormatDuration(p.FocusSeconds),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PERIOD", "TASKS", "HABITS", "RATE", "FOCUS").
		Rows(rows...).
		String()
}
