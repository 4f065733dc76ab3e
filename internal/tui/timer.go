package tui

import (
	"time"

	"github.com/sadopc/habitask/internal/calendar"
	"github.com/sadopc/habitask/internal/store"
)

type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel is a stopwatch for time-type habits. Nothing is written until
// it stops; the elapsed time is then added to the habit's record for the
// day the stopwatch was started.
type timerModel struct {
	store *store.Store
	now   func() time.Time

	state        timerState
	runningSince time.Time     // start of the current running stretch
	banked       time.Duration // time from earlier stretches

	habitID   int64
	habitName string
	day       time.Time

	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newTimerModel(s *store.Store) timerModel {
	t := timerModel{store: s, now: time.Now, state: timerStopped}
	t.lastActivity = t.now()
	t.loadIdleTimeout()
	return t
}

func (t *timerModel) loadIdleTimeout() {
	t.idleTimeout = time.Duration(t.store.GetIntSetting(store.SettingIdleTimeout, 300)) * time.Second
}

func (t *timerModel) start(h store.Habit) {
	now := t.now()
	t.state = timerRunning
	t.runningSince = now
	t.banked = 0
	t.habitID = h.ID
	t.habitName = h.Name
	t.day = calendar.Day(now)
	t.lastActivity = now
	t.isIdle = false
	t.loadIdleTimeout()
}

// stop saves the elapsed whole seconds and resets the stopwatch.
func (t *timerModel) stop() (*store.HabitTracking, time.Duration, error) {
	if t.state == timerStopped {
		return nil, 0, nil
	}
	elapsed := t.currentElapsed()
	t.state = timerStopped
	t.banked = 0

	secs := int64(elapsed / time.Second)
	if secs <= 0 {
		return nil, elapsed, nil
	}
	rec, err := t.store.AddTrackingDuration(t.habitID, t.day, secs)
	if err != nil {
		return nil, elapsed, err
	}
	return rec, elapsed, nil
}

// pauseAt ends the running stretch at the given moment, never before it
// began.
func (t *timerModel) pauseAt(at time.Time) {
	if t.state != timerRunning {
		return
	}
	if at.Before(t.runningSince) {
		at = t.runningSince
	}
	t.banked += at.Sub(t.runningSince)
	t.state = timerPaused
}

func (t *timerModel) pause() { t.pauseAt(t.now()) }

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.state = timerRunning
	t.runningSince = t.now()
	t.lastActivity = t.runningSince
	t.isIdle = false
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

// tick pauses an idle stopwatch. The idle stretch since the last key press
// is not counted.
func (t *timerModel) tick() {
	if t.state != timerRunning || t.idleTimeout <= 0 {
		return
	}
	if t.now().Sub(t.lastActivity) > t.idleTimeout {
		t.pauseAt(t.lastActivity)
		t.isIdle = true
	}
}

func (t *timerModel) recordActivity() {
	t.lastActivity = t.now()
	if t.isIdle && t.state == timerPaused {
		t.resume()
	}
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerRunning:
		return t.banked + t.now().Sub(t.runningSince)
	case timerPaused:
		return t.banked
	}
	return 0
}
