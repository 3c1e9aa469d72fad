package timesheet

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sadopc/suivi/internal/store"
)

type Total struct {
	Name string  `json:"name"`
	Days float64 `json:"days"`
}

// MonthSummary aggregates day records, typically one month.
type MonthSummary struct {
	ByClient     []Total `json:"byClient"`
	ByActivity   []Total `json:"byActivity"`
	Allocated    float64 `json:"allocated"`
	PresentDays  int     `json:"presentDays"`
	AbsentDays   int     `json:"absentDays"`
	TeleworkDays int     `json:"teleworkDays"`
	VoucherDays  int     `json:"voucherDays"`
}

// Summarize adds up every record given. Totals are sorted largest first.
func Summarize(records ...store.MonthRecord) MonthSummary {
	clients := map[string]decimal.Decimal{}
	activities := map[string]decimal.Decimal{}
	allocated := decimal.Zero
	var s MonthSummary

	for _, rec := range records {
		for _, day := range rec {
			absent := day.Absence.Type != "" && day.Absence.Type != store.AbsencePresent
			switch {
			case absent:
				s.AbsentDays++
			case len(day.Activities) > 0:
				s.PresentDays++
			}
			if day.Absence.Telework {
				s.TeleworkDays++
			}
			if day.Absence.RestaurantTicket {
				s.VoucherDays++
			}
			for _, a := range day.Activities {
				v := decimal.NewFromFloat(a.Value)
				clients[a.Client] = clients[a.Client].Add(v)
				activities[a.Activity] = activities[a.Activity].Add(v)
				allocated = allocated.Add(v)
			}
		}
	}

	s.ByClient = sortedTotals(clients)
	s.ByActivity = sortedTotals(activities)
	s.Allocated, _ = allocated.Float64()
	return s
}

func sortedTotals(m map[string]decimal.Decimal) []Total {
	totals := make([]Total, 0, len(m))
	for name, d := range m {
		f, _ := d.Float64()
		totals = append(totals, Total{Name: name, Days: f})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Days != totals[j].Days {
			return totals[i].Days > totals[j].Days
		}
		return totals[i].Name < totals[j].Name
	})
	return totals
}
