package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/suivi/internal/store"
)

func sampleData() ([]store.User, []store.MonthDocument) {
	users := []store.User{
		{ID: "u1", FirstName: "Zoé", LastName: "Martin", Role: store.RoleEmployee},
		{ID: "u2", FirstName: "Émilie", LastName: "Durand", Role: store.RoleEmployee},
		{ID: "u3", FirstName: "Root", LastName: "Admin", Role: store.RoleAdmin},
	}
	docs := []store.MonthDocument{
		{UserID: "u1", Year: 2024, Month: time.October, Data: store.MonthRecord{
			"2024-10-16": {
				Activities: []store.Activity{{Client: "Orange", Activity: "Service projet", Value: 1}},
				Absence:    store.Absence{Type: store.AbsencePresent},
			},
			"2024-10-15": {
				Activities: []store.Activity{
					{Client: "Bouygues", Activity: "Support de maintenance", Value: 0.6},
					{Client: "SFR", Activity: "Avant-vente", Value: 0.4},
				},
				Absence: store.Absence{Type: store.AbsencePresent, RestaurantTicket: true},
			},
		}},
		{UserID: "u2", Year: 2024, Month: time.October, Data: store.MonthRecord{
			"2024-10-15": {Activities: []store.Activity{}, Absence: store.Absence{Type: store.AbsenceConges}},
			"2024-10-17": {Activities: []store.Activity{}, Absence: store.Absence{Type: store.AbsencePresent}},
		}},
		{UserID: "u3", Year: 2024, Month: time.October, Data: store.MonthRecord{
			"2024-10-15": {
				Activities: []store.Activity{{Client: "Free", Activity: "Commercial", Value: 1}},
				Absence:    store.Absence{Type: store.AbsencePresent},
			},
		}},
	}
	return users, docs
}

// ============================================================
// Rows
// ============================================================

func TestBuildRows(t *testing.T) {
	rows := BuildRows(sampleData())

	want := [][]string{
		{"Émilie Durand", "15/10/2024", "", "", "1", "0", "0", "Congés"},
		{"Zoé Martin", "15/10/2024", "Bouygues", "Support de maintenance", "0.6", "0", "1", ""},
		{"Zoé Martin", "15/10/2024", "SFR", "Avant-vente", "0.4", "0", "1", ""},
		{"Zoé Martin", "16/10/2024", "Orange", "Service projet", "1", "0", "0", ""},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i, w := range want {
		got := rows[i].Fields()
		for j := range w {
			if got[j] != w[j] {
				t.Fatalf("row %d col %s = %q, want %q", i, Header[j], got[j], w[j])
			}
		}
	}
}

func TestBuildRowsFrenchCollation(t *testing.T) {
	users := []store.User{
		{ID: "a", FirstName: "Zoé", LastName: "A", Role: store.RoleEmployee},
		{ID: "b", FirstName: "Eric", LastName: "B", Role: store.RoleEmployee},
		{ID: "c", FirstName: "Élodie", LastName: "C", Role: store.RoleEmployee},
	}
	absent := store.DayRecord{Absence: store.Absence{Type: store.AbsenceMaladie}}
	var docs []store.MonthDocument
	for _, u := range users {
		docs = append(docs, store.MonthDocument{UserID: u.ID, Data: store.MonthRecord{"2024-10-15": absent}})
	}

	rows := BuildRows(users, docs)
	got := []string{rows[0].Name, rows[1].Name, rows[2].Name}
	want := []string{"Élodie C", "Eric B", "Zoé A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBuildRowsMissingValue(t *testing.T) {
	users := []store.User{{ID: "u", FirstName: "A", LastName: "B", Role: store.RoleEmployee}}
	docs := []store.MonthDocument{{UserID: "u", Data: store.MonthRecord{
		"2024-10-15": {Activities: []store.Activity{{Client: "Free", Activity: "Commercial"}}, Absence: store.Absence{Type: store.AbsencePresent}},
	}}}
	rows := BuildRows(users, docs)
	if len(rows) != 1 || rows[0].Somme != "1" {
		t.Fatalf("a missing value exports as 1: %+v", rows)
	}
}

func TestBuildRowsEmpty(t *testing.T) {
	if rows := BuildRows(nil, nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2024, time.October, 15, 9, 0, 0, 0, time.UTC), "csv")
	if got != "activites_employes_2024-10-15.csv" {
		t.Fatalf("Filename = %q", got)
	}
}

// ============================================================
// CSV
// ============================================================

func TestWriteCSV(t *testing.T) {
	rows := BuildRows(sampleData())
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "\ufeff") {
		t.Fatal("missing byte-order mark")
	}
	if strings.Contains(out, "\r") {
		t.Fatal("lines must end with LF only")
	}
	lines := strings.Split(strings.TrimPrefix(out, "\ufeff"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 lines, got %d", len(lines))
	}
	if lines[0] != `"Nom du collaborateur";"Date";"Client";"Activité";"Somme";"TTV";"TR";"Absence"` {
		t.Fatalf("header = %s", lines[0])
	}
	if lines[1] != `"Émilie Durand";"15/10/2024";"";"";"1";"0";"0";"Congés"` {
		t.Fatalf("line 1 = %s", lines[1])
	}
}

func TestWriteCSVQuotes(t *testing.T) {
	rows := []Row{{Name: `Jean "JJ" Dupont`, Date: "15/10/2024", Client: "A;B", Somme: "1", TTV: "0", TR: "0"}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[1] != `"Jean ""JJ"" Dupont";"15/10/2024";"A;B";"";"1";"0";"0";""` {
		t.Fatalf("line = %s", lines[1])
	}
}

func TestWriteCSVNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := ToCSV(BuildRows(sampleData()), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\xef\xbb\xbf")) {
		t.Fatal("file should start with the UTF-8 BOM")
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(BuildRows(sampleData()), "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := ToJSON(BuildRows(sampleData()), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 4 || len(result.Rows) != 4 {
		t.Fatalf("count = %d, rows = %d", result.Count, len(result.Rows))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not RFC3339: %q", result.ExportedAt)
	}
	if result.Rows[1].Client != "Bouygues" || result.Rows[1].Somme != "0.6" {
		t.Fatalf("row 1 = %+v", result.Rows[1])
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}

func TestToJSONNoData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, path); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file should be created")
	}
}

// ============================================================
// XLSX
// ============================================================

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, BuildRows(sampleData())); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "Nom du collaborateur" || rows[2][2] != "Bouygues" {
		t.Fatalf("unexpected cells %v", rows[:3])
	}

	panes, err := f.GetPanes(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Fatalf("header row should be frozen: %+v", panes)
	}
}

func TestToXLSXNoData(t *testing.T) {
	if err := ToXLSX(nil, filepath.Join(t.TempDir(), "x.xlsx")); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
