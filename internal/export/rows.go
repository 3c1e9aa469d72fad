package export

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

var ErrNoData = errors.New("no data to export")

// Header is the column row of every export format.
var Header = []string{"Nom du collaborateur", "Date", "Client", "Activité", "Somme", "TTV", "TR", "Absence"}

// Row is one exported line, already formatted.
type Row struct {
	Name     string `json:"nom_du_collaborateur"`
	Date     string `json:"date"`
	Client   string `json:"client"`
	Activity string `json:"activite"`
	Somme    string `json:"somme"`
	TTV      string `json:"ttv"`
	TR       string `json:"tr"`
	Absence  string `json:"absence"`

	day string // YYYY-MM-DD, sort key
}

func (r Row) Fields() []string {
	return []string{r.Name, r.Date, r.Client, r.Activity, r.Somme, r.TTV, r.TR, r.Absence}
}

// BuildRows flattens the month documents of employee accounts into
// export rows: one per activity, plus one per absence-only day. Rows are
// sorted by name in French collation order, then by date.
func BuildRows(users []store.User, docs []store.MonthDocument) []Row {
	employees := make(map[string]store.User, len(users))
	for _, u := range users {
		if u.Role == store.RoleEmployee {
			employees[u.ID] = u
		}
	}

	var rows []Row
	for _, doc := range docs {
		u, ok := employees[doc.UserID]
		if !ok {
			continue
		}
		name := u.FullName()

		dates := make([]string, 0, len(doc.Data))
		for d := range doc.Data {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		for _, date := range dates {
			rows = append(rows, dayRows(name, date, doc.Data[date])...)
		}
	}

	c := collate.New(language.French)
	sort.SliceStable(rows, func(i, j int) bool {
		if n := c.CompareString(rows[i].Name, rows[j].Name); n != 0 {
			return n < 0
		}
		return rows[i].day < rows[j].day
	})
	return rows
}

func dayRows(name, date string, day store.DayRecord) []Row {
	base := Row{
		Name:  name,
		Date:  frenchDate(date),
		TTV:   "0",
		TR:    flag(day.Absence.RestaurantTicket),
		Somme: "1",
		day:   date,
	}
	if day.Absence.Type != store.AbsencePresent {
		base.Absence = string(day.Absence.Type)
	}

	if len(day.Activities) == 0 {
		if day.Absence.Type == "" || day.Absence.Type == store.AbsencePresent {
			return nil
		}
		return []Row{base}
	}

	rows := make([]Row, 0, len(day.Activities))
	for _, a := range day.Activities {
		r := base
		r.Client = a.Client
		r.Activity = a.Activity
		if a.Value > 0 {
			r.Somme = timesheet.FormatValue(a.Value)
		}
		rows = append(rows, r)
	}
	return rows
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// frenchDate turns YYYY-MM-DD into DD/MM/YYYY. Unparseable keys pass through.
func frenchDate(date string) string {
	t, err := time.Parse(timesheet.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

// Filename is the default export name for the given day, e.g.
// activites_employes_2024-10-15.csv.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("activites_employes_%s.%s", now.Format(timesheet.DateLayout), ext)
}
