package timesheet

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a day of an ISO week, Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists every day in week order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayKeys = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var weekdayAbbrevs = [7]string{"Lun", "Mar", "Mer", "Jeu", "Ven", "Sam", "Dim"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayKeys[d]
}

// Abbrev is the short French label used in grids.
func (d Weekday) Abbrev() string {
	if d < Monday || d > Sunday {
		return "?"
	}
	return weekdayAbbrevs[d]
}

func (d Weekday) IsWeekend() bool { return d == Saturday || d == Sunday }

func (d Weekday) MarshalText() ([]byte, error) {
	if d < Monday || d > Sunday {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(weekdayKeys[d]), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	w, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = w
	return nil
}

// ParseWeekday accepts the lowercase English key ("monday").
func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, k := range weekdayKeys {
		if k == key {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf maps a date to its Monday-first weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseWeekdaySet reads a comma-separated list of weekday keys.
// Unknown entries are skipped.
func ParseWeekdaySet(s string) [7]bool {
	var set [7]bool
	for _, part := range strings.Split(s, ",") {
		if d, err := ParseWeekday(part); err == nil {
			set[d] = true
		}
	}
	return set
}

func FormatWeekdaySet(set [7]bool) string {
	var keys []string
	for _, d := range Weekdays {
		if set[d] {
			keys = append(keys, d.String())
		}
	}
	return strings.Join(keys, ",")
}
