package tui

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/export"
	"github.com/sadopc/habitask/internal/habit"
	"github.com/sadopc/habitask/internal/recur"
	"github.com/sadopc/habitask/internal/store"
	"github.com/sadopc/habitask/internal/tasklist"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// runCmd executes cmd and flattens batches into their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func timedHabit(t *testing.T, s *store.Store) *store.Habit {
	t.Helper()
	h, err := s.CreateHabit(store.HabitInput{
		Name: "Meditate", Type: habit.Time, Target: 600, Unit: "min",
		Frequency: habit.Frequency{Kind: habit.Daily},
	})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// ============================================================
// Timer model
// ============================================================

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedTimer(s *store.Store) (timerModel, *fakeClock) {
	clk := &fakeClock{t: time.Now()}
	tm := newTimerModel(s)
	tm.now = clk.now
	return tm, clk
}

func TestTimerStartStop(t *testing.T) {
	s := newTestStore(t)
	h := timedHabit(t, s)

	tm, clk := newClockedTimer(s)
	if tm.running() {
		t.Fatal("timer should start stopped")
	}

	tm.start(*h)
	if !tm.running() || tm.paused() {
		t.Fatal("timer should be running after start")
	}
	if tm.habitID != h.ID || tm.habitName != "Meditate" {
		t.Fatal("habit info not set")
	}
	if !tm.day.Equal(calendar.Day(clk.t)) {
		t.Fatalf("timer day should be the start day, got %v", tm.day)
	}

	clk.advance(90 * time.Second)
	rec, elapsed, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("stop should return the tracking record")
	}
	if rec.Duration != 90 || elapsed != 90*time.Second {
		t.Fatalf("expected 90s tracked, got %ds (%v)", rec.Duration, elapsed)
	}
	if tm.running() {
		t.Fatal("timer should be stopped")
	}
}

func TestTimerStopAccumulates(t *testing.T) {
	s := newTestStore(t)
	h := timedHabit(t, s)
	tm, clk := newClockedTimer(s)

	for i := 0; i < 2; i++ {
		tm.start(*h)
		clk.advance(5 * time.Minute)
		if _, _, err := tm.stop(); err != nil {
			t.Fatal(err)
		}
	}

	rec, err := s.GetTracking(h.ID, tm.day)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Duration != 600 {
		t.Fatalf("expected two sessions summed to 600s, got %d", rec.Duration)
	}
	if !rec.Completed {
		t.Fatal("reaching the target should complete the day")
	}
}

func TestTimerShortRunSavesNothing(t *testing.T) {
	s := newTestStore(t)
	h := timedHabit(t, s)

	tm, clk := newClockedTimer(s)
	tm.start(*h)
	clk.advance(400 * time.Millisecond)
	rec, _, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatal("sub-second run should not be saved")
	}
	if got, _ := s.GetTracking(h.ID, tm.day); got != nil {
		t.Fatal("no tracking record should exist")
	}
}

func TestTimerStopWhenStopped(t *testing.T) {
	s := newTestStore(t)
	tm := newTimerModel(s)

	rec, elapsed, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil || elapsed != 0 {
		t.Fatal("stop on stopped timer should return nothing")
	}
}

func TestTimerPauseResume(t *testing.T) {
	s := newTestStore(t)
	h := timedHabit(t, s)

	tm := newTimerModel(s)
	tm.start(*h)

	tm.pause()
	if !tm.paused() {
		t.Fatal("timer should be paused")
	}
	if !tm.running() {
		t.Fatal("paused timer is still 'running' (not stopped)")
	}

	tm.resume()
	if tm.paused() {
		t.Fatal("timer should not be paused after resume")
	}

	tm.toggle()
	if !tm.paused() {
		t.Fatal("toggle should pause a running timer")
	}
	tm.toggle()
	if tm.paused() {
		t.Fatal("toggle should resume a paused timer")
	}
}

func TestTimerPauseWhenNotRunning(t *testing.T) {
	s := newTestStore(t)
	tm := newTimerModel(s)

	tm.pause()
	tm.toggle()
	if tm.paused() || tm.running() {
		t.Fatal("stopped timer should stay stopped")
	}
}

func TestTimerElapsedWhilePaused(t *testing.T) {
	s := newTestStore(t)
	h := timedHabit(t, s)

	tm, clk := newClockedTimer(s)
	tm.start(*h)
	clk.advance(20 * time.Second)
	tm.pause()

	clk.advance(30 * time.Second)
	if got := tm.currentElapsed(); got != 20*time.Second {
		t.Fatalf("elapsed should not grow while paused, got %v", got)
	}

	tm.resume()
	clk.advance(10 * time.Second)
	if got := tm.currentElapsed(); got != 30*time.Second {
		t.Fatalf("expected 30s after resuming, got %v", got)
	}
}

func TestTimerIdleDetection(t *testing.T) {
	s := newTestStore(t)
	h := timedHabit(t, s)

	tm, clk := newClockedTimer(s)
	tm.start(*h)
	tm.idleTimeout = time.Minute

	clk.advance(30 * time.Second)
	tm.recordActivity()
	clk.advance(5 * time.Minute)
	tm.tick()

	if !tm.isIdle || !tm.paused() {
		t.Fatal("timer should auto-pause on idle")
	}
	if got := tm.currentElapsed(); got != 30*time.Second {
		t.Fatalf("idle time should not count, got %v", got)
	}

	tm.recordActivity()
	if tm.isIdle || tm.paused() {
		t.Fatal("should have resumed after activity")
	}
}

func TestTimerIdleDisabled(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting(store.SettingIdleTimeout, "0"); err != nil {
		t.Fatal(err)
	}
	h := timedHabit(t, s)

	tm, clk := newClockedTimer(s)
	tm.start(*h)
	clk.advance(time.Hour)
	tm.tick()
	if tm.paused() {
		t.Fatal("zero idle timeout should never pause")
	}
}

func TestTimerIdleTimeoutFromSettings(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting(store.SettingIdleTimeout, "120"); err != nil {
		t.Fatal(err)
	}
	tm := newTimerModel(s)
	if tm.idleTimeout != 2*time.Minute {
		t.Fatalf("expected 2m idle timeout, got %v", tm.idleTimeout)
	}
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + 30*time.Minute + 45*time.Second, "01:30:45"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatSecondsAndHours(t *testing.T) {
	if got := formatSeconds(3661); got != "01:01:01" {
		t.Errorf("formatSeconds(3661) = %q", got)
	}
	if got := formatHours(5400); got != "1.5h" {
		t.Errorf("formatHours(5400) = %q", got)
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		cursor, n, height int
		start, end        int
	}{
		{0, 5, 10, 0, 5},
		{0, 20, 5, 0, 5},
		{10, 20, 5, 8, 13},
		{19, 20, 5, 15, 20},
		{3, 20, 0, 0, 20},
	}
	for _, tt := range tests {
		start, end := window(tt.cursor, tt.n, tt.height)
		if start != tt.start || end != tt.end {
			t.Errorf("window(%d, %d, %d) = %d,%d want %d,%d",
				tt.cursor, tt.n, tt.height, start, end, tt.start, tt.end)
		}
		if tt.cursor < start || tt.cursor >= end {
			t.Errorf("cursor %d outside window %d..%d", tt.cursor, start, end)
		}
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 6 {
		t.Fatalf("expected 6 view names, got %d", len(viewNames))
	}
	if viewNames[viewToday] != "Today" || viewNames[viewSettings] != "Settings" {
		t.Fatal("view names out of order")
	}
}

// ============================================================
// Habits view
// ============================================================

func TestProgressLabel(t *testing.T) {
	water := store.Habit{Type: habit.Quantity, Target: 8, Unit: "glasses"}
	read := store.Habit{Type: habit.Time, Target: 1800}
	floss := store.Habit{Type: habit.Binary, Target: 1}

	tests := []struct {
		name string
		h    store.Habit
		rec  *store.HabitTracking
		want string
	}{
		{"quantity", water, &store.HabitTracking{Value: 3}, "3/8 glasses"},
		{"quantity untracked", water, nil, "0/8 glasses"},
		{"time", read, &store.HabitTracking{Duration: 720}, "12/30 min"},
		{"binary done", floss, &store.HabitTracking{Completed: true}, "done"},
		{"binary open", floss, nil, "not yet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressLabel(tt.h, tt.rec); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHabitProgress(t *testing.T) {
	water := store.Habit{Type: habit.Quantity, Target: 8}
	if got := habitProgress(water, nil); got != 0 {
		t.Fatalf("untracked progress should be 0, got %v", got)
	}
	if got := habitProgress(water, &store.HabitTracking{Value: 4}); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if got := habitProgress(water, &store.HabitTracking{Value: 12}); got != 1 {
		t.Fatalf("progress should cap at 1, got %v", got)
	}
}

func TestQuickTrack(t *testing.T) {
	s := newTestStore(t)
	day := calendar.Today()
	floss, _ := s.CreateHabit(store.HabitInput{Name: "Floss", Type: habit.Binary, Target: 1,
		Frequency: habit.Frequency{Kind: habit.Daily}})
	water, _ := s.CreateHabit(store.HabitInput{Name: "Water", Type: habit.Quantity, Target: 8, Unit: "glasses",
		Frequency: habit.Frequency{Kind: habit.Daily}})
	meditate := timedHabit(t, s)

	if _, ok := quickTrackCmd(s, *floss, day)().(dataChangedMsg); !ok {
		t.Fatal("binary quick track should report a change")
	}
	rec, _ := s.GetTracking(floss.ID, day)
	if rec == nil || !rec.Completed {
		t.Fatal("binary habit should be done")
	}
	quickTrackCmd(s, *floss, day)()
	rec, _ = s.GetTracking(floss.ID, day)
	if rec != nil && rec.Completed {
		t.Fatal("second quick track should undo")
	}

	quickTrackCmd(s, *water, day)()
	quickTrackCmd(s, *water, day)()
	addValueCmd(s, water.ID, day, -1)()
	rec, _ = s.GetTracking(water.ID, day)
	if rec == nil || rec.Value != 1 {
		t.Fatalf("expected 1 glass, got %+v", rec)
	}

	if msg, ok := quickTrackCmd(s, *meditate, day)().(statusMsg); !ok || msg.isError {
		t.Fatal("timed habits should answer with a hint")
	}
}

func TestHabitFormInput(t *testing.T) {
	s := newTestStore(t)
	m := newHabitsModel(s)
	*m.formName = "Run"
	*m.formType_ = string(habit.Time)
	*m.formTarget = "30"
	*m.formFreq = string(habit.Weekly)
	*m.formPerWeek = "3"

	in, err := m.habitInput()
	if err != nil {
		t.Fatal(err)
	}
	if in.Target != 1800 {
		t.Fatalf("time target should be stored in seconds, got %v", in.Target)
	}
	if in.Frequency.Kind != habit.Weekly || in.Frequency.TimesPerWeek != 3 {
		t.Fatalf("unexpected frequency %+v", in.Frequency)
	}
	if in.CategoryID != nil {
		t.Fatal("no category selected")
	}

	*m.formFreq = string(habit.Weekdays)
	*m.formDays = "mon, fri"
	in, err = m.habitInput()
	if err != nil {
		t.Fatal(err)
	}
	if !in.Frequency.Days.Has(time.Friday) || in.Frequency.Days.Has(time.Tuesday) {
		t.Fatalf("unexpected days %v", in.Frequency.Days)
	}
	if targetInput(habit.Time, in.Target) != "30" {
		t.Fatal("target should round-trip to minutes")
	}
}

func TestHabitsViewDayOffset(t *testing.T) {
	s := newTestStore(t)
	m := newHabitsModel(s)
	m.setSize(120, 40)

	m, _ = m.update(runes("h"))
	if m.dayOffset != 1 {
		t.Fatalf("left should move back a day, got %d", m.dayOffset)
	}
	if !m.day().Equal(calendar.AddDays(m.today, -1)) {
		t.Fatal("tracking day should be yesterday")
	}
	m, _ = m.update(runes("l"))
	m, _ = m.update(runes("l"))
	if m.dayOffset != 0 {
		t.Fatal("right should not move past today")
	}
}

func TestHabitsViewRenders(t *testing.T) {
	s := newTestStore(t)
	h := timedHabit(t, s)
	s.AddTrackingDuration(h.ID, calendar.Today(), 300)

	m := newHabitsModel(s)
	m.setSize(140, 40)
	m, _ = m.update(m.refresh()())
	if len(m.habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(m.habits))
	}
	out := m.view()
	if !strings.Contains(out, "Meditate") || !strings.Contains(out, "5/10 min") {
		t.Fatalf("habit row missing from view:\n%s", out)
	}
}

func TestLoadersReportStoreErrors(t *testing.T) {
	s := newTestStore(t)
	today := newTodayModel(s)
	habits := newHabitsModel(s)
	s.Close()

	for name, cmd := range map[string]tea.Cmd{"today": today.loadData(), "habits": habits.refresh()} {
		msgs := runCmd(cmd)
		if len(msgs) != 1 {
			t.Fatalf("%s: expected one message, got %d", name, len(msgs))
		}
		st, ok := msgs[0].(statusMsg)
		if !ok || !st.isError {
			t.Fatalf("%s: expected an error status, got %#v", name, msgs[0])
		}
	}
}

// ============================================================
// Tasks view
// ============================================================

func loadTasks(t *testing.T, m tasksModel) tasksModel {
	t.Helper()
	for _, msg := range runCmd(m.refresh()) {
		m, _ = m.update(msg)
	}
	return m
}

func TestTasksViewFilterAndSort(t *testing.T) {
	s := newTestStore(t)
	today := calendar.Today()
	yesterday := calendar.AddDays(today, -1)
	s.CreateTask(store.TaskInput{Title: "Overdue report", DueDate: &yesterday, Priority: store.PriorityLow})
	s.CreateTask(store.TaskInput{Title: "Buy milk", DueDate: &today, Priority: store.PriorityHigh})
	s.CreateTask(store.TaskInput{Title: "Someday"})

	m := loadTasks(t, newTasksModel(s))
	m.setSize(120, 40)
	if len(m.visible) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(m.visible))
	}
	if m.visible[0].Title != "Overdue report" {
		t.Fatalf("due sort should put overdue first, got %q", m.visible[0].Title)
	}

	m, _ = m.update(runes("f"))
	if m.filter.Window != tasklist.WindowToday || len(m.visible) != 1 || m.visible[0].Title != "Buy milk" {
		t.Fatalf("today window: %v %d", m.filter.Window, len(m.visible))
	}
	m, _ = m.update(runes("f"))
	if m.filter.Window != tasklist.WindowOverdue || len(m.visible) != 1 {
		t.Fatalf("overdue window: %v %d", m.filter.Window, len(m.visible))
	}

	m.filter.Window = tasklist.WindowAll
	m, _ = m.update(runes("o"))
	if m.sortKey != tasklist.SortPriority {
		t.Fatalf("sort should cycle to priority, got %v", m.sortKey)
	}
	if m.visible[0].Title != "Buy milk" {
		t.Fatalf("priority sort should put high first, got %q", m.visible[0].Title)
	}
}

func TestTasksViewSearch(t *testing.T) {
	s := newTestStore(t)
	s.CreateTask(store.TaskInput{Title: "Buy milk"})
	s.CreateTask(store.TaskInput{Title: "Write report"})

	m := loadTasks(t, newTasksModel(s))
	m, _ = m.update(runes("/"))
	if !m.capturing() {
		t.Fatal("search should capture keys")
	}
	m, _ = m.update(runes("milk"))
	if m.filter.Query != "milk" || len(m.visible) != 1 {
		t.Fatalf("search should narrow the list, query=%q visible=%d", m.filter.Query, len(m.visible))
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.capturing() {
		t.Fatal("enter should leave search")
	}
	if len(m.visible) != 1 {
		t.Fatal("query should stay applied after enter")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filter.Query != "" || len(m.visible) != 2 {
		t.Fatal("esc should clear filters")
	}
}

func TestToggleTaskCmdReportsNextOccurrence(t *testing.T) {
	s := newTestStore(t)
	due := calendar.Today()
	task, _ := s.CreateTask(store.TaskInput{Title: "Water plants", DueDate: &due})

	msgs := runCmd(toggleTaskCmd(s, task.ID))
	if len(msgs) != 1 {
		t.Fatalf("plain task should report one change, got %v", msgs)
	}
	if _, ok := msgs[0].(dataChangedMsg); !ok {
		t.Fatalf("expected dataChangedMsg, got %T", msgs[0])
	}

	weekly := calendar.Today()
	rec, _ := s.CreateTask(store.TaskInput{Title: "Laundry", DueDate: &weekly,
		Recurrence: recur.Recurrence{Rule: recur.Weekly, Interval: 1}})
	msgs = runCmd(toggleTaskCmd(s, rec.ID))
	var status string
	for _, msg := range msgs {
		if sm, ok := msg.(statusMsg); ok {
			status = sm.text
		}
	}
	want := calendar.Format(calendar.AddDays(weekly, 7))
	if !strings.Contains(status, want) {
		t.Fatalf("status %q should mention next due date %s", status, want)
	}
}

func TestTaskFormInput(t *testing.T) {
	s := newTestStore(t)
	m := newTasksModel(s)
	*m.formTitle = "Pay rent"
	*m.formDue = "2024-03-01"
	*m.formRecurrence = "monthly"
	*m.formInterval = "1"
	*m.formPriority = int(store.PriorityHigh)

	in, err := m.taskInput()
	if err != nil {
		t.Fatal(err)
	}
	if in.DueDate == nil || calendar.Format(*in.DueDate) != "2024-03-01" {
		t.Fatalf("unexpected due date %v", in.DueDate)
	}
	if in.StartDate != nil {
		t.Fatal("empty start date should stay nil")
	}
	if in.Recurrence.String() != "monthly" || in.Priority != store.PriorityHigh {
		t.Fatalf("unexpected input %+v", in)
	}

	*m.formDue = "March 1st"
	if _, err := m.taskInput(); err == nil {
		t.Fatal("bad date should fail")
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" home, errands,, ")
	if len(got) != 2 || got[0] != "home" || got[1] != "errands" {
		t.Fatalf("unexpected tags %q", got)
	}
	if splitTags("") != nil {
		t.Fatal("empty input should give no tags")
	}
}

func TestTaskDetailSubtasks(t *testing.T) {
	s := newTestStore(t)
	task, _ := s.CreateTask(store.TaskInput{Title: "Move house"})
	s.AddSubtask(task.ID, "Pack")
	s.AddSubtask(task.ID, "Book van")

	m := loadTasks(t, newTasksModel(s))
	m.setSize(120, 40)
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeSubtasks {
		t.Fatal("enter should open the task detail")
	}
	out := m.view()
	if !strings.Contains(out, "Subtasks 0/2") || !strings.Contains(out, "Book van") {
		t.Fatalf("detail view missing subtasks:\n%s", out)
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeTaskList {
		t.Fatal("esc should return to the list")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSecsToMinAndBack(t *testing.T) {
	if got := secsToMin("1500"); got != "25" {
		t.Errorf("secsToMin(1500) = %q", got)
	}
	if got := secsToMin("abc"); got != "abc" {
		t.Errorf("invalid input should pass through, got %q", got)
	}
	if got := minToSecs(" 5 "); got != "300" {
		t.Errorf("minToSecs(5) = %q", got)
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct{ k, v, want string }{
		{"pomodoro_work", "1500", "25 min"},
		{"idle_timeout", "300", "5 min"},
		{"daily_task_goal", "5", "5 tasks"},
		{"week_start", "monday", "monday"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.k, tt.v); got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.k, tt.v, got, tt.want)
		}
	}
}

func TestSaveSettings(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	m, _ = m.showForm()
	*m.values[store.SettingPomodoroWork] = "50"
	*m.values[store.SettingPomodoroCount] = "2"
	*m.values[store.SettingWeekStart] = "sunday"

	if err := m.saveSettings(); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetSetting("pomodoro_work"); v != "3000" {
		t.Fatalf("pomodoro_work = %q", v)
	}
	if v, _ := s.GetSetting("pomodoro_count"); v != "2" {
		t.Fatalf("pomodoro_count = %q", v)
	}
	if s.WeekStart() != time.Sunday {
		t.Fatal("week start should be saved")
	}
	if got := *m.values[store.SettingIdleTimeout]; got != "5" {
		t.Fatalf("idle timeout shown as %q minutes", got)
	}
	if v, _ := s.GetSetting("pomodoro_break"); v != "300" {
		t.Fatalf("untouched setting changed: %q", v)
	}
}

func TestValidators(t *testing.T) {
	if positiveInt("0") == nil || positiveInt("x") == nil || positiveInt("3") != nil {
		t.Fatal("positiveInt")
	}
	if nonNegativeInt("0") != nil || nonNegativeInt("-1") == nil {
		t.Fatal("nonNegativeInt")
	}
	if optionalDate("") != nil || optionalDate("2024-02-30") == nil {
		t.Fatal("optionalDate")
	}
	if validDays("") != nil || validDays("funday") == nil {
		t.Fatal("validDays")
	}
}

// ============================================================
// Pomodoro model
// ============================================================

func TestPomodoroInit(t *testing.T) {
	s := newTestStore(t)
	pm := newPomodoroModel(s)

	if pm.phase != pomodoroIdle {
		t.Fatalf("expected idle phase, got %d", pm.phase)
	}
	if pm.workDuration != 25*time.Minute {
		t.Fatalf("expected 25min work, got %v", pm.workDuration)
	}
	if pm.breakDuration != 5*time.Minute {
		t.Fatalf("expected 5min break, got %v", pm.breakDuration)
	}
	if pm.longBreakDuration != 15*time.Minute {
		t.Fatalf("expected 15min long break, got %v", pm.longBreakDuration)
	}
	if pm.targetCount != 4 {
		t.Fatalf("expected 4 target, got %d", pm.targetCount)
	}
}

func TestPomodoroStartSession(t *testing.T) {
	s := newTestStore(t)
	pm := newPomodoroModel(s)

	pm, _ = pm.startSession()
	if pm.phase != pomodoroWork {
		t.Fatal("should be in work phase after start")
	}
	if pm.sessionID == 0 {
		t.Fatal("session ID should be set")
	}
	if pm.remaining <= 0 {
		t.Fatal("remaining should be positive")
	}
	pom, _ := s.GetPomodoro(pm.sessionID)
	if pom.Status != "working" {
		t.Fatalf("DB status should be working, got %s", pom.Status)
	}
}

func TestPomodoroCancelSession(t *testing.T) {
	s := newTestStore(t)
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()
	pm, _ = pm.advancePhase()

	pm, _ = pm.cancelSession()
	if pm.phase != pomodoroIdle {
		t.Fatal("should be idle after cancel")
	}

	pom, _ := s.GetPomodoro(pm.sessionID)
	if pom.Status != "cancelled" {
		t.Fatalf("DB status should be cancelled, got %s", pom.Status)
	}
	if pom.CompletedCount != 1 {
		t.Fatalf("finished work phases should be kept, got %d", pom.CompletedCount)
	}
}

func TestPomodoroShortBreakCycle(t *testing.T) {
	s := newTestStore(t)
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()

	pm, _ = pm.advancePhase()
	if pm.completedCount != 1 || pm.phase != pomodoroShortBreak {
		t.Fatalf("after work: phase=%d count=%d", pm.phase, pm.completedCount)
	}
	pom, _ := s.GetPomodoro(pm.sessionID)
	if pom.Status != "short_break" || pom.CompletedCount != 1 {
		t.Fatalf("DB after work: %+v", pom)
	}

	pm, _ = pm.advancePhase()
	if pm.phase != pomodoroWork {
		t.Fatalf("should be back to work, got %d", pm.phase)
	}
}

func TestPomodoroLongBreakAfterLastWork(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(store.SettingPomodoroCount, "2")
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()

	pm, _ = pm.advancePhase() // -> short break
	pm, _ = pm.advancePhase() // -> work
	pm, _ = pm.advancePhase() // -> long break
	if pm.phase != pomodoroLongBreak {
		t.Fatalf("last work phase should lead to the long break, got %d", pm.phase)
	}
	if pm.remaining != 15*time.Minute {
		t.Fatalf("long break should use its own duration, got %v", pm.remaining)
	}
	pom, _ := s.GetPomodoro(pm.sessionID)
	if pom.Status != "completed" || pom.CompletedCount != 2 {
		t.Fatalf("session should be complete in the DB: %+v", pom)
	}

	pm, _ = pm.advancePhase()
	if pm.phase != pomodoroCompleted {
		t.Fatalf("long break should end the session, got %d", pm.phase)
	}
}

func TestPomodoroStopDuringFinalBreakKeepsCompletion(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("pomodoro_count", "1")
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()
	pm, _ = pm.advancePhase()

	pm, _ = pm.cancelSession()
	if pm.phase != pomodoroIdle {
		t.Fatal("stop should go idle")
	}
	pom, _ := s.GetPomodoro(pm.sessionID)
	if pom.Status != "completed" {
		t.Fatalf("completed session must not be cancelled, got %s", pom.Status)
	}
}

func TestPomodoroLinkedTask(t *testing.T) {
	s := newTestStore(t)
	task, _ := s.CreateTask(store.TaskInput{Title: "Write chapter"})
	pm := newPomodoroModel(s)
	pm.task = task

	pm, cmd := pm.startSession()
	runCmd(cmd)

	pom, _ := s.GetPomodoro(pm.sessionID)
	if pom.TaskID == nil || *pom.TaskID != task.ID {
		t.Fatal("session should be linked to the task")
	}
	got, _ := s.GetTask(task.ID)
	if got.Status != store.StatusInProgress {
		t.Fatalf("linked task should move to in progress, got %s", got.Status)
	}
}

func TestPomodoroTickAdvancesPhase(t *testing.T) {
	s := newTestStore(t)
	clk := &fakeClock{t: time.Now()}
	pm := newPomodoroModel(s)
	pm.now = clk.now
	pm, _ = pm.startSession()

	clk.advance(10 * time.Minute)
	pm, _ = pm.update(tickMsg(clk.t))
	if pm.phase != pomodoroWork || pm.remaining != 15*time.Minute {
		t.Fatalf("mid-phase tick: phase=%d remaining=%v", pm.phase, pm.remaining)
	}

	clk.advance(15 * time.Minute)
	pm, _ = pm.update(tickMsg(clk.t))
	if pm.phase != pomodoroShortBreak || pm.remaining != 5*time.Minute {
		t.Fatalf("work should end on time: phase=%d remaining=%v", pm.phase, pm.remaining)
	}
}

func TestPomodoroLoadsSettings(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("pomodoro_work", "600")
	s.SetSetting("pomodoro_break", "120")
	s.SetSetting("pomodoro_long_break", "600")
	s.SetSetting("pomodoro_count", "2")

	pm := newPomodoroModel(s)
	if pm.workDuration != 10*time.Minute {
		t.Fatalf("expected 10min work, got %v", pm.workDuration)
	}
	if pm.breakDuration != 2*time.Minute {
		t.Fatalf("expected 2min break, got %v", pm.breakDuration)
	}
	if pm.longBreakDuration != 10*time.Minute {
		t.Fatalf("expected 10min long break, got %v", pm.longBreakDuration)
	}
	if pm.targetCount != 2 {
		t.Fatalf("expected 2 target, got %d", pm.targetCount)
	}
}

func TestFormatPomodoroTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{time.Second, "00:01"},
		{25 * time.Minute, "25:00"},
		{5*time.Minute + 30*time.Second, "05:30"},
		{-time.Second, "00:00"}, // negative should clamp to 0
	}
	for _, tt := range tests {
		if got := formatPomodoroTime(tt.d); got != tt.want {
			t.Errorf("formatPomodoroTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// ============================================================
// Statistics view
// ============================================================

func TestStatsViewKeys(t *testing.T) {
	s := newTestStore(t)
	m := newStatsModel(s)
	m.setSize(120, 40)

	m, _ = m.update(m.refresh()())
	if len(m.periods) != 14 {
		t.Fatalf("daily chart should show 14 days, got %d", len(m.periods))
	}

	m, cmd := m.update(runes("g"))
	m, _ = m.update(cmd())
	if len(m.periods) != 8 {
		t.Fatalf("weekly chart should show 8 weeks, got %d", len(m.periods))
	}

	m, _ = m.update(runes("m"))
	if m.metric != metricHabits {
		t.Fatal("m should cycle the metric")
	}
	if !strings.Contains(m.view(), "Habit completion") {
		t.Fatal("view should name the metric")
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) App {
	t.Helper()
	app := NewApp(newTestStore(t), zap.NewNop(), t.TempDir())
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func TestNewApp(t *testing.T) {
	app := NewApp(newTestStore(t), nil, ".")

	if app.activeView != viewToday {
		t.Fatal("default view should be today")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("overlays should be hidden by default")
	}
	if app.log == nil {
		t.Fatal("nil logger should fall back to a no-op logger")
	}
	if app.View() != "Loading..." {
		t.Fatal("unsized app should show the loading state")
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)

	for v := range viewNames {
		app.activeView = viewState(v)
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppTabKeys(t *testing.T) {
	app := newTestApp(t)

	m, _ := app.Update(runes("5"))
	app = m.(App)
	if app.activeView != viewStats {
		t.Fatalf("5 should open statistics, got %d", app.activeView)
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewSettings {
		t.Fatal("tab should move to the next view")
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.(App).activeView != viewToday {
		t.Fatal("tab should wrap around")
	}
}

func TestAppSearchCapturesKeys(t *testing.T) {
	app := newTestApp(t)
	m, _ := app.Update(runes("2"))
	m, _ = m.(App).Update(runes("/"))
	m, _ = m.(App).Update(runes("q"))
	app = m.(App)

	if app.activeView != viewTasks {
		t.Fatal("typing in search should not switch views")
	}
	if app.tasks.filter.Query != "q" {
		t.Fatalf("q should be typed into search, got %q", app.tasks.filter.Query)
	}
}

func TestAppQuit(t *testing.T) {
	app := newTestApp(t)
	_, cmd := app.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	m, _ := app.Update(statusMsg{text: "disk full", isError: true})
	app = m.(App)

	if !app.statusError {
		t.Fatal("error status should be flagged")
	}
	if !strings.Contains(app.renderFooter(), "disk full") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppDataChangedRefreshes(t *testing.T) {
	app := newTestApp(t)
	if _, err := app.store.CreateTask(store.TaskInput{Title: "Fresh"}); err != nil {
		t.Fatal(err)
	}

	_, cmd := app.Update(dataChangedMsg{})
	if cmd == nil {
		t.Fatal("data change should trigger a refresh")
	}
	var m tea.Model = app
	for _, msg := range runCmd(cmd) {
		m, _ = m.(App).Update(msg)
	}
	if len(m.(App).tasks.all) != 1 {
		t.Fatal("tasks view should see the new task")
	}
}

func TestAppTimerRouting(t *testing.T) {
	app := newTestApp(t)
	h := timedHabit(t, app.store)
	app.activeView = viewHabits

	m, _ := app.Update(startTimerMsg{habit: *h})
	app = m.(App)
	if !app.today.isRunning() {
		t.Fatal("start from the habits view should run the shared stopwatch")
	}
	if !strings.Contains(app.renderFooter(), "Meditate") {
		t.Fatal("footer should show the running habit")
	}

	m, _ = app.Update(stopTimerMsg{})
	if m.(App).today.isRunning() {
		t.Fatal("stop should stop the stopwatch")
	}
}

func TestAppExport(t *testing.T) {
	app := newTestApp(t)
	app.store.CreateTask(store.TaskInput{Title: "Exported"})

	for _, f := range export.Formats {
		msg := app.doExport(f)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("%s export failed: %v", f, msg)
		}
		if !strings.HasSuffix(done.path, "."+string(f)) {
			t.Fatalf("unexpected path %s", done.path)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("export file missing: %v", err)
		}
	}
}

func TestAppExportPicker(t *testing.T) {
	app := newTestApp(t)
	m, _ := app.Update(runes("e"))
	app = m.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	m, _ = app.Update(runes("j"))
	m, _ = m.(App).Update(runes("j"))
	m, _ = m.(App).Update(runes("j"))
	if m.(App).exportCursor != len(export.Formats)-1 {
		t.Fatal("cursor should stop at the last format")
	}
	m, _ = m.(App).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(App).exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
	for i, g := range keys.FullHelp() {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	if len(priorityStyles) != len(priorityMarks) || len(priorityMarks) != int(store.PriorityHigh)+1 {
		t.Fatal("one style and mark per priority")
	}
	cells := []string{
		heatCell(true, true, "#2ECC71"),
		heatCell(false, true, "#2ECC71"),
		heatCell(false, false, "#2ECC71"),
		colorDot("#6C63FF"),
		doneItemStyle.Render("done"),
	}
	for i, c := range cells {
		if c == "" {
			t.Fatalf("cell %d rendered empty", i)
		}
	}
	for ph := pomodoroIdle; ph <= pomodoroCompleted; ph++ {
		if phaseLooks[ph].label == "" {
			t.Fatalf("phase %d has no label", ph)
		}
	}
}
