package timesheet

import (
	"slices"
	"time"

	"github.com/sadopc/suivi/internal/store"
)

// SessionDraft is the editable state of one week: the grid rows, the
// per-day telework and voucher flags, and what is already stored.
// Methods never modify the receiver; they return the next draft.
type SessionDraft struct {
	Week       WeekBounds
	Telework   [7]bool
	Restaurant [7]bool
	Editing    bool

	rows              []AllocationRow
	defaultTelework   [7]bool
	defaultRestaurant [7]bool
	saved             store.MonthRecord

	// derived, refreshed only when their inputs change
	view   WeekView
	totals [7]float64
}

// NewDraft starts an empty grid for week. saved holds the stored days of
// the week; the flags seed Telework and Restaurant.
func NewDraft(week WeekBounds, saved store.MonthRecord, telework, restaurant [7]bool) SessionDraft {
	d := SessionDraft{
		Week:              week,
		Telework:          telework,
		Restaurant:        restaurant,
		defaultTelework:   telework,
		defaultRestaurant: restaurant,
	}
	return d.withSaved(saved)
}

func (d SessionDraft) withSaved(saved store.MonthRecord) SessionDraft {
	d.saved = store.MonthRecord{}
	for _, key := range d.Week.DateKeys() {
		if rec, ok := saved[key]; ok {
			d.saved[key] = rec
		}
	}
	d.view = NewWeekView(d.Week, d.saved)
	return d
}

func (d SessionDraft) withRows(rows []AllocationRow) SessionDraft {
	d.rows = rows
	d.totals = PresentTotals(rows)
	return d
}

// Rows returns a copy of the grid.
func (d SessionDraft) Rows() []AllocationRow { return cloneRows(d.rows) }

func (d SessionDraft) Len() int { return len(d.rows) }

func (d SessionDraft) Row(i int) (AllocationRow, bool) {
	if i < 0 || i >= len(d.rows) {
		return AllocationRow{}, false
	}
	return d.rows[i].Clone(), true
}

// Saved returns the stored days of the week.
func (d SessionDraft) Saved() store.MonthRecord { return d.saved }

// View is the cached display of the stored week.
func (d SessionDraft) View() WeekView { return d.view }

// Totals is the present total of the grid per weekday.
func (d SessionDraft) Totals() [7]float64 { return d.totals }

// WithRows replaces the whole grid.
func (d SessionDraft) WithRows(rows []AllocationRow) SessionDraft {
	return d.withRows(cloneRows(rows))
}

func (d SessionDraft) AddRow() SessionDraft {
	rows := cloneRows(d.rows)
	rows = append(rows, AllocationRow{Classification: Present, Values: map[Weekday]float64{}})
	return d.withRows(rows)
}

func (d SessionDraft) RemoveRow(i int) SessionDraft {
	if i < 0 || i >= len(d.rows) {
		return d
	}
	rows := cloneRows(d.rows)
	rows = append(rows[:i], rows[i+1:]...)
	return d.withRows(rows)
}

func (d SessionDraft) update(i int, fn func(*AllocationRow)) SessionDraft {
	if i < 0 || i >= len(d.rows) {
		return d
	}
	rows := cloneRows(d.rows)
	fn(&rows[i])
	return d.withRows(rows)
}

func (d SessionDraft) SetClient(i int, client string) SessionDraft {
	return d.update(i, func(r *AllocationRow) { r.Client = client })
}

func (d SessionDraft) SetActivity(i int, activity string) SessionDraft {
	return d.update(i, func(r *AllocationRow) { r.Activity = activity })
}

// SetClassification switches a row between present and absent. Absent
// rows take the internal client; an activity that is not valid for the
// new classification is cleared.
func (d SessionDraft) SetClassification(i int, class Classification, cat Catalog) SessionDraft {
	return d.update(i, func(r *AllocationRow) {
		if r.Classification == class {
			return
		}
		wasAbsent := r.Classification == Absent
		r.Classification = class
		if class == Absent {
			r.Client = cat.InternalClient
		} else if wasAbsent {
			r.Client = ""
		}
		if !slices.Contains(cat.ActivitiesFor(class), r.Activity) {
			r.Activity = ""
		}
	})
}

// SetValue parses raw into the cell. Invalid input leaves the draft as it
// was and reports false.
func (d SessionDraft) SetValue(i int, day Weekday, raw string) (SessionDraft, bool) {
	if i < 0 || i >= len(d.rows) {
		return d, false
	}
	prev := d.rows[i].Values[day]
	v, ok := ValidateAllocationValue(raw, prev)
	if !ok {
		return d, false
	}
	return d.update(i, func(r *AllocationRow) {
		if r.Values == nil {
			r.Values = map[Weekday]float64{}
		}
		if v == 0 {
			delete(r.Values, day)
			return
		}
		r.Values[day] = v
	}), true
}

func (d SessionDraft) ToggleTelework(day Weekday) SessionDraft {
	d.Telework[day] = !d.Telework[day]
	return d
}

func (d SessionDraft) ToggleRestaurant(day Weekday) SessionDraft {
	d.Restaurant[day] = !d.Restaurant[day]
	return d
}

// EnterEditMode loads the stored week into the grid.
func (d SessionDraft) EnterEditMode(cat Catalog) SessionDraft {
	days := DaysByWeekday(d.Week, d.saved)
	d = d.withRows(DayRecordsToRows(days, cat))
	for wd, rec := range days {
		d.Telework[wd] = rec.Absence.Telework
		d.Restaurant[wd] = rec.Absence.RestaurantTicket
	}
	d.Editing = true
	return d
}

// Reset empties the grid and restores the default flags.
func (d SessionDraft) Reset() SessionDraft {
	d = d.withRows(nil)
	d.Telework = d.defaultTelework
	d.Restaurant = d.defaultRestaurant
	d.Editing = false
	return d
}

// CancelEdit leaves edit mode without saving.
func (d SessionDraft) CancelEdit() SessionDraft { return d.Reset() }

// Build converts the grid into the week's day records.
func (d SessionDraft) Build() (map[string]store.DayRecord, error) {
	return RowsToDayRecords(d.rows, d.Week.Dates(), d.Telework, d.Restaurant)
}

// Submitted is the draft after days were stored: the grid is reset and
// the cached view shows the new days.
func (d SessionDraft) Submitted(days map[string]store.DayRecord) SessionDraft {
	merged := store.MonthRecord{}
	for k, v := range d.saved {
		merged[k] = v
	}
	for k, v := range days {
		merged[k] = v
	}
	return d.Reset().withSaved(merged)
}

// DayView is one stored day as shown next to the grid.
type DayView struct {
	Weekday      Weekday
	Date         time.Time
	Key          string
	Record       store.DayRecord
	Stored       bool
	PresentTotal float64
}

type WeekView struct {
	Week       WeekBounds
	Days       [7]DayView
	FilledDays int
}

func NewWeekView(week WeekBounds, saved store.MonthRecord) WeekView {
	v := WeekView{Week: week}
	dates := week.Dates()
	for i, key := range week.DateKeys() {
		_, stored := saved[key]
		rec := saved.Day(key)
		total := 0.0
		if rec.Absence.Type == store.AbsencePresent {
			values := make([]float64, 0, len(rec.Activities))
			for _, a := range rec.Activities {
				values = append(values, a.Value)
			}
			total, _ = sumDecimal(values).Float64()
		}
		v.Days[i] = DayView{
			Weekday:      Weekday(i),
			Date:         dates[i],
			Key:          key,
			Record:       rec,
			Stored:       stored,
			PresentTotal: total,
		}
		if len(rec.Activities) > 0 || rec.Absence.Type != store.AbsencePresent {
			v.FilledDays++
		}
	}
	return v
}
