package habit

import (
	"fmt"
	"strings"
	"time"
)

// DaySet is a bitmask of weekdays; bit i is time.Weekday(i).
type DaySet uint8

const AllDays DaySet = 1<<7 - 1

func DaysOf(days ...time.Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

func (s DaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Days lists the set's weekdays starting from Monday.
func (s DaySet) Days() []time.Weekday {
	var out []time.Weekday
	for i := 1; i <= 7; i++ {
		d := time.Weekday(i % 7)
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s DaySet) String() string {
	if s&AllDays == AllDays {
		return "every day"
	}
	var names []string
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	if len(names) == 0 {
		return "never"
	}
	return strings.Join(names, ",")
}

// ParseDays accepts a comma separated list of weekday names or their three
// letter prefixes ("mon,wed,fri").
func ParseDays(s string) (DaySet, error) {
	var set DaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			name := strings.ToLower(d.String())
			if part == name || part == name[:3] {
				set |= DaysOf(d)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
	}
	return set, nil
}
