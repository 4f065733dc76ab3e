// Package habit holds the rules that decide whether a habit was met on a
// given day, how far along a tracking record is, and how streaks and
// completion rates are derived from a habit's tracking history.
package habit

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
)

type Type string

const (
	Binary   Type = "binary"
	Quantity Type = "quantity"
	Time     Type = "time"
)

var Types = []Type{Binary, Quantity, Time}

func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown habit type %q", s)
}

type FrequencyKind string

const (
	Daily    FrequencyKind = "daily"
	Weekdays FrequencyKind = "weekdays"
	Weekly   FrequencyKind = "weekly"
)

var FrequencyKinds = []FrequencyKind{Daily, Weekdays, Weekly}

// Frequency says when a habit is expected. Days is only read for Weekdays,
// TimesPerWeek only for Weekly.
type Frequency struct {
	Kind         FrequencyKind
	Days         DaySet
	TimesPerWeek int
}

func (f Frequency) Validate() error {
	switch f.Kind {
	case Daily:
		return nil
	case Weekdays:
		if f.Days == 0 {
			return fmt.Errorf("weekdays frequency needs at least one day")
		}
		return nil
	case Weekly:
		if f.TimesPerWeek < 1 || f.TimesPerWeek > 7 {
			return fmt.Errorf("times per week must be between 1 and 7, got %d", f.TimesPerWeek)
		}
		return nil
	}
	return fmt.Errorf("unknown frequency %q", f.Kind)
}

func (f Frequency) String() string {
	switch f.Kind {
	case Weekdays:
		return f.Days.String()
	case Weekly:
		return fmt.Sprintf("%dx/week", f.TimesPerWeek)
	}
	return "daily"
}

// Rule is the part of a habit the calculations need.
type Rule struct {
	Type      Type
	Target    float64
	Frequency Frequency
}

// Record is one day of tracking.
type Record struct {
	Date      time.Time
	Completed bool
	Value     float64
	Duration  int64 // seconds
}

// Met reports whether rec satisfies the rule. Binary habits read the flag;
// quantity and time habits compare against the target.
func (r Rule) Met(rec Record) bool {
	switch r.Type {
	case Quantity:
		return r.Target > 0 && rec.Value >= r.Target
	case Time:
		return r.Target > 0 && float64(rec.Duration) >= r.Target
	}
	return rec.Completed
}

// Progress returns how far rec is towards the target, in [0, 1].
func (r Rule) Progress(rec Record) float64 {
	var p float64
	switch r.Type {
	case Quantity:
		if r.Target <= 0 {
			return 0
		}
		p = rec.Value / r.Target
	case Time:
		if r.Target <= 0 {
			return 0
		}
		p = float64(rec.Duration) / r.Target
	default:
		if rec.Completed {
			p = 1
		}
	}
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// IsDue reports whether the habit is expected on day. Weekly habits are due
// every day; the obligation is counted per week.
func (r Rule) IsDue(day time.Time) bool {
	if r.Frequency.Kind == Weekdays {
		return r.Frequency.Days.Has(day.Weekday())
	}
	return true
}

func (r Rule) weeklyNeed() int {
	if r.Frequency.TimesPerWeek < 1 {
		return 1
	}
	return r.Frequency.TimesPerWeek
}

// Index maps each record's calendar day to the record. Later records for the
// same day win.
func Index(recs []Record) map[time.Time]Record {
	m := make(map[time.Time]Record, len(recs))
	for _, rec := range recs {
		m[calendar.Day(rec.Date)] = rec
	}
	return m
}

func (r Rule) metDays(recs []Record) (met map[time.Time]bool, first, last time.Time) {
	met = make(map[time.Time]bool)
	for i, rec := range recs {
		d := calendar.Day(rec.Date)
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
		if r.Met(rec) {
			met[d] = true
		}
	}
	return met, first, last
}

func (r Rule) weekCounts(met map[time.Time]bool, weekStart time.Weekday) map[time.Time]int {
	counts := make(map[time.Time]int)
	for d := range met {
		counts[calendar.WeekStart(d, weekStart)]++
	}
	return counts
}

// CurrentStreak counts the run of met due days (or met weeks, for weekly
// habits) ending at today. A today, or current week, that is not met yet
// does not break the run.
func CurrentStreak(r Rule, recs []Record, today time.Time, weekStart time.Weekday) int {
	if len(recs) == 0 {
		return 0
	}
	met, first, _ := r.metDays(recs)
	today = calendar.Day(today)

	if r.Frequency.Kind == Weekly {
		counts := r.weekCounts(met, weekStart)
		need := r.weeklyNeed()
		w := calendar.WeekStart(today, weekStart)
		if counts[w] < need {
			w = w.AddDate(0, 0, -7)
		}
		streak := 0
		for counts[w] >= need {
			streak++
			w = w.AddDate(0, 0, -7)
		}
		return streak
	}

	d := today
	if r.IsDue(d) && !met[d] {
		d = d.AddDate(0, 0, -1)
	}
	streak := 0
	for !d.Before(first) {
		if r.IsDue(d) {
			if !met[d] {
				break
			}
			streak++
		}
		d = d.AddDate(0, 0, -1)
	}
	return streak
}

// BestStreak returns the longest run of met due days (or met weeks) in the
// whole history.
func BestStreak(r Rule, recs []Record, weekStart time.Weekday) int {
	if len(recs) == 0 {
		return 0
	}
	met, first, last := r.metDays(recs)

	best, run := 0, 0
	if r.Frequency.Kind == Weekly {
		counts := r.weekCounts(met, weekStart)
		need := r.weeklyNeed()
		for w := calendar.WeekStart(first, weekStart); !w.After(last); w = w.AddDate(0, 0, 7) {
			if counts[w] >= need {
				run++
				best = max(best, run)
			} else {
				run = 0
			}
		}
		return best
	}

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !r.IsDue(d) {
			continue
		}
		if met[d] {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

// CompletionRate is met due days over due days in [from, to]. Weekly habits
// count weeks instead: met weeks over weeks touching the range. It is 0
// when nothing was due.
func CompletionRate(r Rule, recs []Record, from, to time.Time, weekStart time.Weekday) float64 {
	from, to = calendar.Day(from), calendar.Day(to)
	if to.Before(from) {
		return 0
	}
	met, _, _ := r.metDays(recs)

	due, done := 0, 0
	if r.Frequency.Kind == Weekly {
		counts := r.weekCounts(met, weekStart)
		need := r.weeklyNeed()
		for w := calendar.WeekStart(from, weekStart); !w.After(to); w = w.AddDate(0, 0, 7) {
			due++
			if counts[w] >= need {
				done++
			}
		}
	} else {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if !r.IsDue(d) {
				continue
			}
			due++
			if met[d] {
				done++
			}
		}
	}
	if due == 0 {
		return 0
	}
	return float64(done) / float64(due)
}
