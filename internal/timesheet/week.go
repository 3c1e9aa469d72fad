package timesheet

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// WeekBounds is the Monday..Sunday span of one ISO week.
type WeekBounds struct {
	Monday time.Time
	Sunday time.Time
	Year   int // ISO year, may differ from Monday.Year()
	Week   int
}

// ComputeWeekBounds returns the ISO week containing anchor. Times are
// truncated to midnight in anchor's location.
func ComputeWeekBounds(anchor time.Time) WeekBounds {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	monday := day.AddDate(0, 0, -int(WeekdayOf(day)))
	year, week := day.ISOWeek()
	return WeekBounds{
		Monday: monday,
		Sunday: monday.AddDate(0, 0, 6),
		Year:   year,
		Week:   week,
	}
}

func (w WeekBounds) Dates() [7]time.Time {
	var dates [7]time.Time
	for i := range dates {
		dates[i] = w.Monday.AddDate(0, 0, i)
	}
	return dates
}

func (w WeekBounds) DateKeys() [7]string {
	var keys [7]string
	for i, d := range w.Dates() {
		keys[i] = d.Format(DateLayout)
	}
	return keys
}

func (w WeekBounds) Next() WeekBounds { return ComputeWeekBounds(w.Monday.AddDate(0, 0, 7)) }
func (w WeekBounds) Prev() WeekBounds { return ComputeWeekBounds(w.Monday.AddDate(0, 0, -7)) }

func (w WeekBounds) Contains(t time.Time) bool {
	return ComputeWeekBounds(t).Monday.Equal(w.Monday)
}

// YearMonth identifies one stored month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Months lists the calendar months the week touches, in order.
func (w WeekBounds) Months() []YearMonth {
	first := YearMonth{w.Monday.Year(), w.Monday.Month()}
	last := YearMonth{w.Sunday.Year(), w.Sunday.Month()}
	if first == last {
		return []YearMonth{first}
	}
	return []YearMonth{first, last}
}

func (w WeekBounds) Label() string {
	return fmt.Sprintf("Semaine %d (%d) · %s - %s",
		w.Week, w.Year, w.Monday.Format("02/01"), w.Sunday.Format("02/01/2006"))
}
