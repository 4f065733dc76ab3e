package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/stats"
	"github.com/sadopc/habitask/internal/store"
)

type chartMetric int

const (
	metricTasks chartMetric = iota
	metricHabits
	metricFocus
)

var metricNames = []string{"Tasks completed", "Habit completion %", "Focus minutes"}

type statsModel struct {
	store  *store.Store
	width  int
	height int

	granularity stats.Granularity
	metric      chartMetric
	offset      int // whole chart windows back from today

	summary stats.Summary
	periods []stats.Period

	chart barchart.Model
}

func newStatsModel(s *store.Store) statsModel {
	return statsModel{
		store:       s,
		granularity: stats.ByDay,
		chart:       barchart.New(60, 12),
	}
}

func (r *statsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

type statsDataMsg struct {
	summary stats.Summary
	periods []stats.Period
}

func (r statsModel) refresh() tea.Cmd {
	g, offset := r.granularity, r.offset
	return func() tea.Msg {
		today := calendar.Today()
		weekStart := r.store.WeekStart()
		from, to := stats.Range(g, today, offset, weekStart)
		in, err := stats.Load(r.store, from, to, today)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		sum := stats.Summarize(in)
		return statsDataMsg{summary: sum, periods: stats.Bucket(sum.Daily, from, to, g, weekStart)}
	}
}

func (r statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		r.summary = msg.summary
		r.periods = msg.periods
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
				return r, r.refresh()
			}
		case key.Matches(msg, keys.Mode):
			r.granularity = r.granularity.Next()
			r.offset = 0
			return r, r.refresh()
		case key.Matches(msg, keys.Metric):
			r.metric = (r.metric + 1) % chartMetric(len(metricNames))
			r.buildChart()
		case key.Matches(msg, keys.Copy):
			if err := clipboard.WriteAll(r.summary.Text()); err != nil {
				return r, errCmd(err)
			}
			return r, statusCmd("Summary copied to clipboard")
		}
	}
	return r, nil
}

func (r statsModel) value(p stats.Period) float64 {
	switch r.metric {
	case metricHabits:
		return p.HabitRate() * 100
	case metricFocus:
		return float64(p.FocusSeconds) / 60
	}
	return float64(p.TasksCompleted)
}

func (r *statsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	style := lipgloss.NewStyle().Foreground(colorPrimary)
	switch r.metric {
	case metricHabits:
		style = lipgloss.NewStyle().Foreground(colorSuccess)
	case metricFocus:
		style = lipgloss.NewStyle().Foreground(colorAccent)
	}

	bars := make([]barchart.BarData, 0, len(r.periods))
	for _, p := range r.periods {
		bars = append(bars, barchart.BarData{
			Label:  p.Label(r.granularity),
			Values: []barchart.BarValue{{Name: metricNames[r.metric], Value: r.value(p), Style: style}},
		})
	}
	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r statsModel) view() string {
	w := r.width - 4

	var tabs []string
	for _, g := range stats.Granularities {
		label := strings.ToUpper(string(g)[:1]) + string(g)[1:]
		if g == r.granularity {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s",
		r.summary.From.Format("Jan 02"), r.summary.To.Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Statistics"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "  ", dateLabel,
	)

	metric := highlightStyle.Render("  " + metricNames[r.metric])
	nav := mutedStyle.Render("  ←/→: navigate  g: day/week/month  m: metric  y: copy summary")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", metric, r.chart.View(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r statsModel) renderSummaryTable(w int) string {
	s := r.summary
	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-10s %s", "", "Summary")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 54))),
		fmt.Sprintf("  %-10s %d total  %d done  %d pending  %s  %s",
			"Tasks", s.Tasks.Total, s.Tasks.Completed, s.Tasks.Pending,
			overdueLabel(s.Tasks.Overdue), successStyle.Render(stats.Percent(s.Tasks.CompletionRate))),
		fmt.Sprintf("  %-10s %d active  %d tracked  best streak %d  %s",
			"Habits", s.Habits.Active, s.Habits.Tracked, s.Habits.BestStreak,
			successStyle.Render(stats.Percent(s.Habits.CompletionRate))),
		fmt.Sprintf("  %-10s %d sessions  %d completed  %s focus",
			"Pomodoro", s.Pomodoro.Sessions, s.Pomodoro.Completed,
			highlightStyle.Render(stats.FormatDuration(s.Pomodoro.FocusSeconds))),
	}
	return strings.Join(rows, "\n")
}

func overdueLabel(n int) string {
	label := fmt.Sprintf("%d overdue", n)
	if n > 0 {
		return errorStyle.Render(label)
	}
	return label
}

