package timesheet

import (
	"strings"
	"time"

	"github.com/sadopc/suivi/internal/store"
)

// RowsToDayRecords builds the seven day records of a week from the grid.
// The result holds every date of the week so that saving it replaces
// whatever was stored for those dates. Nothing is returned on error.
func RowsToDayRecords(rows []AllocationRow, dates [7]time.Time, telework, restaurant [7]bool) (map[string]store.DayRecord, error) {
	if err := checkMissing(rows); err != nil {
		return nil, err
	}
	if err := checkValues(rows); err != nil {
		return nil, err
	}
	if err := checkSums(rows, dates); err != nil {
		return nil, err
	}

	days := make(map[string]store.DayRecord, 7)
	for _, d := range Weekdays {
		rec := store.DayRecord{
			Activities: []store.Activity{},
			Absence: store.Absence{
				Type:             store.AbsencePresent,
				Telework:         telework[d],
				RestaurantTicket: restaurant[d],
			},
		}
		for _, r := range rows {
			v, ok := r.Value(d)
			if !ok {
				continue
			}
			rec.Activities = append(rec.Activities, store.Activity{
				Client:   r.Client,
				Activity: r.Activity,
				Value:    v,
			})
			if r.Classification == Absent {
				rec.Absence.Type = store.AbsenceAbsent
			}
		}
		days[dates[d].Format(DateLayout)] = rec
	}
	return days, nil
}

func checkMissing(rows []AllocationRow) error {
	for i, r := range rows {
		switch {
		case strings.TrimSpace(r.Client) == "":
			return &ValidationError{Kind: KindMissingField, Row: i, Field: "client"}
		case strings.TrimSpace(r.Activity) == "":
			return &ValidationError{Kind: KindMissingField, Row: i, Field: "activity"}
		case r.Classification == "":
			return &ValidationError{Kind: KindMissingField, Row: i, Field: "timeClassification"}
		}
	}
	return nil
}

// checkValues rejects set cells that ValidateAllocationValue would refuse.
func checkValues(rows []AllocationRow) error {
	for i, r := range rows {
		for _, d := range Weekdays {
			if v, ok := r.Value(d); ok && !validCell(v) {
				return &ValidationError{Kind: KindInvalidOption, Row: i, Field: "value", Value: FormatValue(v)}
			}
		}
	}
	return nil
}

// checkSums reports every weekday whose present values do not total 1.
func checkSums(rows []AllocationRow, dates [7]time.Time) error {
	var mismatches []Mismatch
	for _, d := range Weekdays {
		values := presentValues(rows, d)
		if len(values) == 0 {
			continue
		}
		sum := sumDecimal(values)
		if withinTolerance(sum) {
			continue
		}
		f, _ := sum.Float64()
		mismatches = append(mismatches, Mismatch{Weekday: d, Date: dates[d].Format(DateLayout), Sum: f})
	}
	if len(mismatches) > 0 {
		return &ValidationError{Kind: KindSumMismatch, Row: -1, Mismatches: mismatches}
	}
	return nil
}

func presentValues(rows []AllocationRow, d Weekday) []float64 {
	var values []float64
	for _, r := range rows {
		if r.Classification != Present {
			continue
		}
		if v, ok := r.Value(d); ok {
			values = append(values, v)
		}
	}
	return values
}

// PresentTotals sums present values per weekday.
func PresentTotals(rows []AllocationRow) [7]float64 {
	var totals [7]float64
	for _, d := range Weekdays {
		totals[d], _ = sumDecimal(presentValues(rows, d)).Float64()
	}
	return totals
}

type rowKey struct {
	client   string
	activity string
	class    Classification
}

// DayRecordsToRows rebuilds grid rows from stored days. An entry is absent
// when its day is not Présent and the entry itself is an absence of cat, so
// present work logged next to an absence on the same day stays present.
// Entries are keyed by (client, activity, classification): a pair read as
// present on one day and absent on another becomes two rows. Rows keep
// first-seen order.
func DayRecordsToRows(days map[Weekday]store.DayRecord, cat Catalog) []AllocationRow {
	var rows []AllocationRow
	index := make(map[rowKey]int)

	for _, d := range Weekdays {
		rec, ok := days[d]
		if !ok {
			continue
		}
		absentDay := rec.Absence.Type != "" && rec.Absence.Type != store.AbsencePresent
		for _, a := range rec.Activities {
			class := Present
			if absentDay && cat.IsAbsence(a) {
				class = Absent
			}
			k := rowKey{a.Client, a.Activity, class}
			i, seen := index[k]
			if !seen {
				i = len(rows)
				index[k] = i
				rows = append(rows, AllocationRow{
					Client:         a.Client,
					Activity:       a.Activity,
					Classification: class,
					Values:         map[Weekday]float64{},
				})
			}
			rows[i].Values[d] = a.Value
		}
	}
	return rows
}

// DaysByWeekday picks the week's dates out of a month-keyed record.
func DaysByWeekday(week WeekBounds, saved store.MonthRecord) map[Weekday]store.DayRecord {
	out := make(map[Weekday]store.DayRecord, 7)
	for i, key := range week.DateKeys() {
		if rec, ok := saved[key]; ok {
			out[Weekday(i)] = rec
		}
	}
	return out
}
