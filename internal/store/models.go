package store

import "time"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Position     string
	Role         Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// AbsenceType is the attendance status recorded for one day.
type AbsenceType string

const (
	AbsencePresent      AbsenceType = "Présent"
	AbsenceAbsent       AbsenceType = "Absent"
	AbsenceConges       AbsenceType = "Congés"
	AbsenceMaladie      AbsenceType = "Maladie"
	AbsenceRecuperation AbsenceType = "Récupération"
	AbsenceFormation    AbsenceType = "Formation"
)

type Activity struct {
	Client   string  `json:"client"`
	Activity string  `json:"activity"`
	Value    float64 `json:"value"`
}

type Absence struct {
	Type             AbsenceType `json:"type"`
	Telework         bool        `json:"telework"`
	RestaurantTicket bool        `json:"restaurantTicket"`
}

type DayRecord struct {
	Activities []Activity `json:"activities"`
	Absence    Absence    `json:"absence"`
}

// EmptyDay is how a date with no stored record reads.
func EmptyDay() DayRecord {
	return DayRecord{
		Activities: []Activity{},
		Absence:    Absence{Type: AbsencePresent},
	}
}

// MonthRecord maps YYYY-MM-DD to the record of that day.
type MonthRecord map[string]DayRecord

// Day returns the record for date, or EmptyDay when none is stored.
func (m MonthRecord) Day(date string) DayRecord {
	d, ok := m[date]
	if !ok {
		return EmptyDay()
	}
	if d.Activities == nil {
		d.Activities = []Activity{}
	}
	if d.Absence.Type == "" {
		d.Absence.Type = AbsencePresent
	}
	return d
}

// MonthDocument is one stored (user, year, month) row.
type MonthDocument struct {
	UserID    string
	Year      int
	Month     time.Month
	Data      MonthRecord
	UpdatedAt time.Time
}

// MonthPatch is a set of whole-day replacements for one month.
type MonthPatch struct {
	Year  int
	Month time.Month
	Days  MonthRecord
}

type Preference struct {
	Key   string
	Value string
}
