package timesheet

import (
	"fmt"
	"strings"
)

type Classification string

const (
	Present Classification = "present"
	Absent  Classification = "absent"
)

func ParseClassification(s string) (Classification, error) {
	switch Classification(strings.ToLower(strings.TrimSpace(s))) {
	case Present:
		return Present, nil
	case Absent:
		return Absent, nil
	case "":
		return "", nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}

// AllocationRow is one line of the weekly grid. A weekday missing from
// Values, or holding a value <= 0, is unset.
type AllocationRow struct {
	Client         string              `json:"client"`
	Activity       string              `json:"activity"`
	Classification Classification      `json:"timeClassification"`
	Values         map[Weekday]float64 `json:"values"`
}

func (r AllocationRow) Value(d Weekday) (float64, bool) {
	v, ok := r.Values[d]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func (r AllocationRow) Clone() AllocationRow {
	c := r
	c.Values = make(map[Weekday]float64, len(r.Values))
	for d, v := range r.Values {
		c.Values[d] = v
	}
	return c
}

func cloneRows(rows []AllocationRow) []AllocationRow {
	if rows == nil {
		return nil
	}
	out := make([]AllocationRow, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
