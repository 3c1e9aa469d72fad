package timesheet

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/suivi/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store, string) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	u, err := s.CreateUser(store.User{
		Email:        "ana@example.com",
		FirstName:    "Ana",
		LastName:     "Blanc",
		PasswordHash: "hash",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewService(s, DefaultCatalog(), nil), s, u.ID
}

// failingStore answers every call with err.
type failingStore struct{ err error }

func (f failingStore) GetMonthlyData(string, int, time.Month) (store.MonthRecord, error) {
	return nil, f.err
}
func (f failingStore) SaveMonths(string, []store.MonthPatch) error { return f.err }
func (f failingStore) GetPreference(string, string) (string, error) {
	return "", f.err
}

// ============================================================
// Service
// ============================================================

func TestLoadWeekEmpty(t *testing.T) {
	svc, _, uid := newTestService(t)

	d, err := svc.LoadWeek(uid, date(2024, time.October, 16))
	if err != nil {
		t.Fatalf("LoadWeek: %v", err)
	}
	if d.Len() != 0 || d.Editing {
		t.Fatal("a fresh draft has an empty grid")
	}
	if d.View().FilledDays != 0 {
		t.Fatalf("FilledDays = %d", d.View().FilledDays)
	}
	if !d.Week.Monday.Equal(date(2024, time.October, 14)) {
		t.Fatalf("week Monday = %s", d.Week.Monday)
	}
}

func TestLoadWeekDefaultFlags(t *testing.T) {
	svc, s, uid := newTestService(t)
	if err := s.SetPreference(uid, store.PrefTeleworkDays, "monday,friday"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPreference(uid, store.PrefVoucherDays, "tuesday"); err != nil {
		t.Fatal(err)
	}

	d, err := svc.LoadWeek(uid, date(2024, time.October, 16))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Telework[Monday] || !d.Telework[Friday] || d.Telework[Tuesday] {
		t.Fatalf("telework = %v", d.Telework)
	}
	if !d.Restaurant[Tuesday] || d.Restaurant[Monday] {
		t.Fatalf("restaurant = %v", d.Restaurant)
	}
}

func TestSubmitWeek(t *testing.T) {
	svc, s, uid := newTestService(t)
	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{
		present("Orange", "Service projet", map[Weekday]float64{Monday: 0.6}),
		present("SFR", "Avant-vente", map[Weekday]float64{Monday: 0.4}),
	})

	next, err := svc.SubmitWeek(uid, d)
	if err != nil {
		t.Fatalf("SubmitWeek: %v", err)
	}
	if next.Len() != 0 || next.Editing {
		t.Fatal("grid should reset after submit")
	}
	if !next.View().Days[Monday].Stored || next.View().Days[Monday].PresentTotal != 1 {
		t.Fatalf("cached view not refreshed: %+v", next.View().Days[Monday])
	}

	rec, err := s.GetMonthlyData(uid, 2024, time.October)
	if err != nil {
		t.Fatal(err)
	}
	mon := rec["2024-10-14"]
	if len(mon.Activities) != 2 || mon.Activities[0].Client != "Orange" || mon.Activities[1].Value != 0.4 {
		t.Fatalf("stored monday = %+v", mon)
	}
	if len(rec) != 7 {
		t.Fatalf("expected the whole week written, got %d dates", len(rec))
	}
}

func TestSubmitWeekSumMismatchWritesNothing(t *testing.T) {
	svc, s, uid := newTestService(t)
	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{
		present("Orange", "Service projet", map[Weekday]float64{Monday: 0.6}),
		present("SFR", "Avant-vente", map[Weekday]float64{Monday: 0.3}),
	})

	back, err := svc.SubmitWeek(uid, d)
	if KindOf(err) != KindSumMismatch {
		t.Fatalf("expected SumMismatch, got %v", err)
	}
	if back.Len() != 2 {
		t.Fatal("draft must be returned unchanged on error")
	}
	rec, _ := s.GetMonthlyData(uid, 2024, time.October)
	if len(rec) != 0 {
		t.Fatalf("nothing should be stored, got %v", rec)
	}
}

func TestSubmitWeekAbsentRowForcesInternalClient(t *testing.T) {
	svc, s, uid := newTestService(t)
	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{
		{Client: "Orange", Activity: "maladie", Classification: Absent, Values: map[Weekday]float64{Monday: 1}},
	})

	if _, err := svc.SubmitWeek(uid, d); err != nil {
		t.Fatalf("SubmitWeek: %v", err)
	}
	rec, _ := s.GetMonthlyData(uid, 2024, time.October)
	mon := rec["2024-10-14"]
	if mon.Absence.Type != store.AbsenceAbsent {
		t.Fatalf("type = %q", mon.Absence.Type)
	}
	if mon.Activities[0].Client != "interne" {
		t.Fatalf("client = %q, want interne", mon.Activities[0].Client)
	}
}

func TestSubmitWeekInvalidOption(t *testing.T) {
	svc, s, uid := newTestService(t)
	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{present("Acme", "Commercial", map[Weekday]float64{Monday: 1})})

	_, err := svc.SubmitWeek(uid, d)
	if KindOf(err) != KindInvalidOption {
		t.Fatalf("expected InvalidOption, got %v", err)
	}
	rec, _ := s.GetMonthlyData(uid, 2024, time.October)
	if len(rec) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestSubmitEmptyGridClearsWeek(t *testing.T) {
	svc, s, uid := newTestService(t)
	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{present("Orange", "Commercial", map[Weekday]float64{Monday: 1, Tuesday: 1})})
	if _, err := svc.SubmitWeek(uid, d); err != nil {
		t.Fatal(err)
	}

	d, _ = svc.LoadWeek(uid, date(2024, time.October, 16))
	if d.View().FilledDays != 2 {
		t.Fatalf("FilledDays = %d, want 2", d.View().FilledDays)
	}
	if _, err := svc.SubmitWeek(uid, d); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetMonthlyData(uid, 2024, time.October)
	for _, key := range []string{"2024-10-14", "2024-10-15"} {
		if n := len(rec[key].Activities); n != 0 {
			t.Fatalf("%s still has %d activities", key, n)
		}
	}
}

func TestSubmitWeekKeepsOtherDates(t *testing.T) {
	svc, s, uid := newTestService(t)
	other := store.MonthRecord{"2024-10-01": {
		Activities: []store.Activity{{Client: "Free", Activity: "Commercial", Value: 1}},
		Absence:    store.Absence{Type: store.AbsencePresent},
	}}
	if err := s.SaveMonthlyData(uid, 2024, time.October, other); err != nil {
		t.Fatal(err)
	}

	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{present("Orange", "Commercial", map[Weekday]float64{Monday: 1})})
	if _, err := svc.SubmitWeek(uid, d); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetMonthlyData(uid, 2024, time.October)
	if len(rec["2024-10-01"].Activities) != 1 {
		t.Fatal("dates outside the week must survive")
	}
}

func TestSubmitWeekAcrossMonths(t *testing.T) {
	svc, s, uid := newTestService(t)
	d, err := svc.LoadWeek(uid, date(2024, time.December, 31))
	if err != nil {
		t.Fatal(err)
	}
	d = d.WithRows([]AllocationRow{
		present("Orange", "Commercial", map[Weekday]float64{Monday: 1, Tuesday: 1, Wednesday: 1, Thursday: 1}),
	})
	if _, err := svc.SubmitWeek(uid, d); err != nil {
		t.Fatal(err)
	}

	dec, _ := s.GetMonthlyData(uid, 2024, time.December)
	jan, _ := s.GetMonthlyData(uid, 2025, time.January)
	if len(dec) != 2 || len(jan) != 5 {
		t.Fatalf("expected 2 December and 5 January dates, got %d and %d", len(dec), len(jan))
	}
	if len(dec["2024-12-31"].Activities) != 1 || len(jan["2025-01-02"].Activities) != 1 {
		t.Fatal("days landed in the wrong month")
	}

	again, err := svc.LoadWeek(uid, date(2025, time.January, 3))
	if err != nil {
		t.Fatal(err)
	}
	if again.View().FilledDays != 4 {
		t.Fatalf("FilledDays = %d, want 4", again.View().FilledDays)
	}
}

func TestSubmitWeekEditModeRoundTripOnMixedDay(t *testing.T) {
	svc, _, uid := newTestService(t)
	anchor := date(2024, time.October, 16)

	d, _ := svc.LoadWeek(uid, anchor)
	d = d.WithRows([]AllocationRow{
		present("Orange", "Service projet", map[Weekday]float64{Monday: 1, Tuesday: 1}),
		absent("formation", map[Weekday]float64{Tuesday: 0.5}),
	})
	if _, err := svc.SubmitWeek(uid, d); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	d, _ = svc.LoadWeek(uid, anchor)
	d = d.EnterEditMode(svc.Catalog())
	if d.Len() != 2 {
		t.Fatalf("edit mode rebuilt %d rows: %+v", d.Len(), d.Rows())
	}
	work, _ := d.Row(0)
	if work.Client != "Orange" || work.Classification != Present || len(work.Values) != 2 {
		t.Fatalf("work row: %+v", work)
	}
	leave, _ := d.Row(1)
	if leave.Activity != "formation" || leave.Classification != Absent || leave.Values[Tuesday] != 0.5 {
		t.Fatalf("absence row: %+v", leave)
	}

	back, err := svc.SubmitWeek(uid, d)
	if err != nil {
		t.Fatalf("resubmitting the unchanged grid: %v", err)
	}
	tue := back.Saved()["2024-10-15"]
	if len(tue.Activities) != 2 || tue.Absence.Type != store.AbsenceAbsent {
		t.Fatalf("tuesday after resubmit: %+v", tue)
	}
}

func TestSubmitWeekRejectsOffGridValues(t *testing.T) {
	svc, s, uid := newTestService(t)

	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{
		present("Orange", "Commercial", map[Weekday]float64{Monday: 0.55}),
		present("SFR", "Commercial", map[Weekday]float64{Monday: 0.45}),
		absent("maladie", map[Weekday]float64{Tuesday: 7}),
	})
	back, err := svc.SubmitWeek(uid, d)
	if KindOf(err) != KindInvalidOption {
		t.Fatalf("expected InvalidOption, got %v", err)
	}
	if back.Len() != 3 {
		t.Fatal("draft must survive a rejected submit")
	}
	rec, err := s.GetMonthlyData(uid, 2024, time.October)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec) != 0 {
		t.Fatalf("nothing should be written, got %v", rec)
	}
}

func TestServiceUnauthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.LoadWeek("", time.Now()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("LoadWeek: %v", err)
	}
	d := NewDraft(octWeek(), nil, [7]bool{}, [7]bool{})
	if _, err := svc.SubmitWeek("", d); KindOf(err) != KindUnauthenticated {
		t.Fatalf("SubmitWeek: %v", err)
	}
	if _, err := svc.LoadMonth("", 2024, time.October); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("LoadMonth: %v", err)
	}
}

func TestServiceStoreUnavailable(t *testing.T) {
	disk := errors.New("disk I/O error")
	svc := NewService(failingStore{err: disk}, DefaultCatalog(), nil)

	_, err := svc.LoadWeek("u1", date(2024, time.October, 16))
	if KindOf(err) != KindStoreUnavailable || !errors.Is(err, disk) {
		t.Fatalf("LoadWeek: %v", err)
	}

	d := NewDraft(octWeek(), nil, [7]bool{}, [7]bool{}).
		WithRows([]AllocationRow{present("Orange", "Commercial", map[Weekday]float64{Monday: 1})})
	back, err := svc.SubmitWeek("u1", d)
	if KindOf(err) != KindStoreUnavailable {
		t.Fatalf("SubmitWeek: %v", err)
	}
	if back.Len() != 1 {
		t.Fatal("draft must survive a failed write")
	}
}

func TestLoadMonth(t *testing.T) {
	svc, _, uid := newTestService(t)
	d, _ := svc.LoadWeek(uid, date(2024, time.October, 16))
	d = d.WithRows([]AllocationRow{present("Orange", "Commercial", map[Weekday]float64{Friday: 1})})
	if _, err := svc.SubmitWeek(uid, d); err != nil {
		t.Fatal(err)
	}

	rec, err := svc.LoadMonth(uid, 2024, time.October)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec["2024-10-18"].Activities) != 1 {
		t.Fatalf("friday missing from month: %v", rec)
	}
}

// ============================================================
// Draft
// ============================================================

func TestDraftEditing(t *testing.T) {
	cat := DefaultCatalog()
	d := NewDraft(octWeek(), nil, [7]bool{}, [7]bool{}).AddRow()

	d = d.SetClient(0, "Orange").SetActivity(0, "Commercial")
	d, ok := d.SetValue(0, Monday, "0.5")
	if !ok {
		t.Fatal("0.5 rejected")
	}
	if _, ok := d.SetValue(0, Monday, "1.5"); ok {
		t.Fatal("1.5 accepted")
	}
	if got := d.Totals()[Monday]; got != 0.5 {
		t.Fatalf("Monday total = %v", got)
	}

	d = d.SetClassification(0, Absent, cat)
	r, _ := d.Row(0)
	if r.Client != "interne" || r.Activity != "" {
		t.Fatalf("switching to absent: %+v", r)
	}
	if got := d.Totals()[Monday]; got != 0 {
		t.Fatalf("absent rows leave the present total, got %v", got)
	}

	d = d.SetClassification(0, Present, cat)
	r, _ = d.Row(0)
	if r.Client != "" {
		t.Fatalf("leaving absent clears the client, got %q", r.Client)
	}

	d, _ = d.SetValue(0, Monday, "")
	r, _ = d.Row(0)
	if _, set := r.Values[Monday]; set {
		t.Fatal("empty input clears the cell")
	}

	d = d.RemoveRow(0)
	if d.Len() != 0 {
		t.Fatal("RemoveRow")
	}
}

func TestDraftRowsAreCopies(t *testing.T) {
	d := NewDraft(octWeek(), nil, [7]bool{}, [7]bool{}).
		WithRows([]AllocationRow{present("Orange", "Commercial", map[Weekday]float64{Monday: 1})})

	rows := d.Rows()
	rows[0].Values[Monday] = 0.2
	rows[0].Client = "SFR"

	r, _ := d.Row(0)
	if r.Client != "Orange" || r.Values[Monday] != 1 {
		t.Fatal("mutating Rows() leaked into the draft")
	}

	d2, _ := d.SetValue(0, Monday, "0.3")
	if r, _ := d.Row(0); r.Values[Monday] != 1 {
		t.Fatal("SetValue modified its receiver")
	}
	if r, _ := d2.Row(0); r.Values[Monday] != 0.3 {
		t.Fatal("SetValue result")
	}
}

func TestDraftEnterEditModeAndReset(t *testing.T) {
	w := octWeek()
	saved := store.MonthRecord{
		"2024-10-14": {
			Activities: []store.Activity{{Client: "Orange", Activity: "Commercial", Value: 1}},
			Absence:    store.Absence{Type: store.AbsencePresent, Telework: true},
		},
		"2024-09-30": {Activities: []store.Activity{{Client: "Free", Activity: "Commercial", Value: 1}}},
	}
	var defaults [7]bool
	defaults[Friday] = true

	d := NewDraft(w, saved, defaults, [7]bool{})
	if len(d.Saved()) != 1 {
		t.Fatalf("dates outside the week must be dropped, got %v", d.Saved())
	}

	d = d.EnterEditMode(DefaultCatalog())
	if !d.Editing || d.Len() != 1 {
		t.Fatalf("edit mode: editing=%v rows=%d", d.Editing, d.Len())
	}
	if !d.Telework[Monday] || d.Telework[Tuesday] {
		t.Fatalf("flags should come from the stored days: %v", d.Telework)
	}

	d = d.Reset()
	if d.Editing || d.Len() != 0 || !d.Telework[Friday] || d.Telework[Monday] {
		t.Fatalf("Reset: %+v", d)
	}
}

func TestDraftToggleFlags(t *testing.T) {
	d := NewDraft(octWeek(), nil, [7]bool{}, [7]bool{})
	d2 := d.ToggleTelework(Wednesday).ToggleRestaurant(Wednesday)
	if d.Telework[Wednesday] {
		t.Fatal("toggle modified its receiver")
	}
	if !d2.Telework[Wednesday] || !d2.Restaurant[Wednesday] {
		t.Fatal("toggle did not set the flag")
	}
	days, err := d2.Build()
	if err != nil {
		t.Fatal(err)
	}
	if a := days["2024-10-16"].Absence; !a.Telework || !a.RestaurantTicket {
		t.Fatalf("flags not built: %+v", a)
	}
}

func TestWeekViewDerived(t *testing.T) {
	w := octWeek()
	saved := store.MonthRecord{
		"2024-10-14": {
			Activities: []store.Activity{{Client: "A", Activity: "X", Value: 0.6}, {Client: "B", Activity: "Y", Value: 0.4}},
			Absence:    store.Absence{Type: store.AbsencePresent},
		},
		"2024-10-15": {
			Activities: []store.Activity{{Client: "interne", Activity: "maladie", Value: 1}},
			Absence:    store.Absence{Type: store.AbsenceAbsent},
		},
	}
	v := NewWeekView(w, saved)
	if v.FilledDays != 2 {
		t.Fatalf("FilledDays = %d", v.FilledDays)
	}
	if v.Days[Monday].PresentTotal != 1 || v.Days[Tuesday].PresentTotal != 0 {
		t.Fatalf("present totals: %v %v", v.Days[Monday].PresentTotal, v.Days[Tuesday].PresentTotal)
	}
	if v.Days[Wednesday].Stored || v.Days[Wednesday].Record.Absence.Type != store.AbsencePresent {
		t.Fatal("unstored days read as empty Présent")
	}
}
