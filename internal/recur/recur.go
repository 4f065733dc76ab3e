// Package recur describes how a repeating task advances to its next
// occurrence.
package recur

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/habitask/internal/calendar"
)

type Rule string

const (
	None    Rule = "none"
	Daily   Rule = "daily"
	Weekly  Rule = "weekly"
	Monthly Rule = "monthly"
	Yearly  Rule = "yearly"
)

var Rules = []Rule{None, Daily, Weekly, Monthly, Yearly}

// Recurrence repeats a task every Interval units of Rule.
type Recurrence struct {
	Rule     Rule
	Interval int
}

func (r Recurrence) Repeats() bool {
	return r.Rule != "" && r.Rule != None
}

// Normalize fills defaults: an empty rule becomes None and a repeating rule
// gets an interval of at least 1.
func (r Recurrence) Normalize() Recurrence {
	if r.Rule == "" {
		r.Rule = None
	}
	if !r.Repeats() {
		r.Interval = 0
		return r
	}
	if r.Interval < 1 {
		r.Interval = 1
	}
	return r
}

func (r Recurrence) Validate() error {
	for _, known := range Rules {
		if r.Rule == known || r.Rule == "" {
			if r.Interval < 0 {
				return fmt.Errorf("negative interval %d", r.Interval)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown recurrence rule %q", r.Rule)
}

// Next returns the occurrence after d. A non-repeating recurrence returns d.
func (r Recurrence) Next(d time.Time) time.Time {
	r = r.Normalize()
	switch r.Rule {
	case Daily:
		return calendar.AddDays(d, r.Interval)
	case Weekly:
		return calendar.AddDays(d, 7*r.Interval)
	case Monthly:
		return calendar.AddMonths(d, r.Interval)
	case Yearly:
		return calendar.AddMonths(d, 12*r.Interval)
	}
	return calendar.Day(d)
}

func (r Recurrence) String() string {
	r = r.Normalize()
	if !r.Repeats() {
		return "once"
	}
	if r.Interval == 1 {
		return string(r.Rule)
	}
	unit := strings.TrimSuffix(string(r.Rule), "ly")
	if r.Rule == Daily {
		unit = "day"
	}
	return fmt.Sprintf("every %d %ss", r.Interval, unit)
}

func ParseRule(s string) (Rule, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return None, nil
	}
	for _, r := range Rules {
		if string(r) == s {
			return r, nil
		}
	}
	return None, fmt.Errorf("unknown recurrence rule %q", s)
}
